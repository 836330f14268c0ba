package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/jmylchreest/kindred-api/internal/config"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// StripeWebhookHandler handles Stripe webhook events.
type StripeWebhookHandler struct {
	cfg        *config.Config
	billingSvc *service.BillingService
	logger     *slog.Logger
}

// NewStripeWebhookHandler creates a new Stripe webhook handler.
func NewStripeWebhookHandler(cfg *config.Config, billingSvc *service.BillingService, logger *slog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		cfg:        cfg,
		billingSvc: billingSvc,
		logger:     logger,
	}
}

// HandleWebhook processes incoming Stripe webhooks.
// This is a raw HTTP handler since huma doesn't handle raw body verification well.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 65536 // 64KB

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	// Verify webhook signature
	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.cfg.StripeWebhookSecret)
	if err != nil {
		h.logger.Error("failed to verify webhook signature", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.handleEvent(ctx, event); err != nil {
		h.logger.Error("failed to handle webhook event", "type", event.Type, "error", err)
		// Return 500 so Stripe retries; the subscription mirror is
		// idempotent, a replay is safe.
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleEvent routes events to appropriate handlers.
func (h *StripeWebhookHandler) handleEvent(ctx context.Context, event stripe.Event) error {
	h.logger.Info("received Stripe webhook", "type", event.Type, "id", event.ID)

	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		return h.handleSubscriptionChange(ctx, event)

	case "checkout.session.completed":
		return h.handleCheckoutComplete(ctx, event)

	case "invoice.paid", "invoice.payment_failed":
		return h.handleInvoice(ctx, event)

	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		return nil
	}
}

// handleSubscriptionChange mirrors the subscription object into the local
// table. All three lifecycle events carry the full subscription, so one
// idempotent upsert covers create, renew, cancel, and delete.
func (h *StripeWebhookHandler) handleSubscriptionChange(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return h.billingSvc.ApplySubscription(ctx, &subscription)
}

// handleCheckoutComplete logs new checkouts. The subscription mirror is
// written by the customer.subscription.created event that follows; when
// the session arrives with the subscription expanded we apply it directly.
func (h *StripeWebhookHandler) handleCheckoutComplete(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	userID := session.Metadata["clerk_user_id"]
	if userID == "" {
		h.logger.Warn("checkout session missing clerk_user_id", "session_id", session.ID)
		return nil
	}

	h.logger.Info("checkout completed", "user_id", userID, "session_id", session.ID)

	if session.Subscription != nil && session.Subscription.ID != "" && session.Subscription.Status != "" {
		return h.billingSvc.ApplySubscription(ctx, session.Subscription)
	}
	return nil
}

// handleInvoice refreshes the mirror on renewal payments. Failed payments
// are logged; Stripe moves the subscription to past_due and sends a
// subscription.updated event that downgrades the entitlement.
func (h *StripeWebhookHandler) handleInvoice(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	if invoice.Subscription == nil {
		return nil
	}

	if event.Type == "invoice.payment_failed" {
		h.logger.Warn("invoice payment failed",
			"invoice_id", invoice.ID,
			"subscription_id", invoice.Subscription.ID,
		)
		return nil
	}

	if invoice.Subscription.Status != "" {
		return h.billingSvc.ApplySubscription(ctx, invoice.Subscription)
	}
	h.logger.Debug("invoice paid", "invoice_id", invoice.ID, "subscription_id", invoice.Subscription.ID)
	return nil
}
