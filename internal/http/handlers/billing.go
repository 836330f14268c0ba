package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/service"
)

// BillingHandler handles Stripe checkout and portal endpoints.
type BillingHandler struct {
	billingSvc *service.BillingService
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(billingSvc *service.BillingService) *BillingHandler {
	return &BillingHandler{billingSvc: billingSvc}
}

// CreateCheckoutInput represents a checkout session request.
type CreateCheckoutInput struct {
	Body struct {
		SuccessURL string `json:"successUrl" format:"uri" doc:"Redirect after successful payment"`
		CancelURL  string `json:"cancelUrl" format:"uri" doc:"Redirect when checkout is abandoned"`
	}
}

// CreateCheckoutOutput represents the hosted checkout URL.
type CreateCheckoutOutput struct {
	Body struct {
		URL string `json:"url"`
	}
}

// CreateCheckout starts a Stripe Checkout flow for the pro plan.
func (h *BillingHandler) CreateCheckout(ctx context.Context, input *CreateCheckoutInput) (*CreateCheckoutOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	url, err := h.billingSvc.CreateCheckoutSession(ctx, userID, input.Body.SuccessURL, input.Body.CancelURL)
	if err != nil {
		if errors.Is(err, service.ErrBillingNotConfigured) {
			return nil, huma.Error503ServiceUnavailable("billing is not configured")
		}
		return nil, huma.Error500InternalServerError("failed to create checkout session")
	}

	out := &CreateCheckoutOutput{}
	out.Body.URL = url
	return out, nil
}

// CreatePortalInput represents a billing portal request.
type CreatePortalInput struct {
	Body struct {
		ReturnURL string `json:"returnUrl" format:"uri" doc:"Redirect after leaving the portal"`
	}
}

// CreatePortalOutput represents the portal URL.
type CreatePortalOutput struct {
	Body struct {
		URL string `json:"url"`
	}
}

// CreatePortal returns a Stripe billing portal URL where the user can
// manage or cancel their subscription.
func (h *BillingHandler) CreatePortal(ctx context.Context, input *CreatePortalInput) (*CreatePortalOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	url, err := h.billingSvc.CreatePortalSession(ctx, userID, input.Body.ReturnURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBillingNotConfigured):
			return nil, huma.Error503ServiceUnavailable("billing is not configured")
		case errors.Is(err, service.ErrNoStripeCustomer):
			return nil, huma.Error404NotFound("no billing account for this user")
		default:
			return nil, huma.Error500InternalServerError("failed to create portal session")
		}
	}

	out := &CreatePortalOutput{}
	out.Body.URL = url
	return out, nil
}

// GetSubscriptionOutput represents the user's subscription summary.
type GetSubscriptionOutput struct {
	Body struct {
		Plan              string     `json:"plan"`
		Status            string     `json:"status,omitempty"`
		CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd,omitempty"`
		CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd,omitempty"`
	}
}

// GetSubscription returns the user's subscription state. Free users get
// plan "free" with no subscription detail.
func (h *BillingHandler) GetSubscription(ctx context.Context, input *struct{}) (*GetSubscriptionOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	sub, err := h.billingSvc.CurrentSubscription(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get subscription")
	}

	out := &GetSubscriptionOutput{}
	if sub == nil {
		out.Body.Plan = "free"
		return out, nil
	}
	out.Body.Plan = string(sub.Plan)
	out.Body.Status = string(sub.Status)
	out.Body.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	end := sub.CurrentPeriodEnd
	out.Body.CurrentPeriodEnd = &end
	return out, nil
}
