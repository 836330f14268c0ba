package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stripe/stripe-go/v78"
	bpsession "github.com/stripe/stripe-go/v78/billingportal/session"
	"github.com/stripe/stripe-go/v78/checkout/session"

	"github.com/jmylchreest/kindred-api/internal/config"
	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
)

var (
	ErrBillingNotConfigured = errors.New("billing is not configured")
	ErrNoStripeCustomer     = errors.New("user has no billing account")
)

// BillingService manages the Stripe subscription lifecycle. Stripe is the
// source of truth for subscription state; this service mirrors it into the
// local subscriptions table so entitlement checks never call Stripe on the
// hot path.
type BillingService struct {
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	entitlements  *EntitlementService
	cfg           *config.Config
	logger        *slog.Logger
	now           func() time.Time
}

// NewBillingService creates a new billing service.
func NewBillingService(repos *repository.Repositories, entitlements *EntitlementService, cfg *config.Config, logger *slog.Logger) *BillingService {
	// Set Stripe API key
	stripe.Key = cfg.StripeSecretKey

	return &BillingService{
		users:         repos.User,
		subscriptions: repos.Subscription,
		entitlements:  entitlements,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Enabled reports whether Stripe is configured.
func (s *BillingService) Enabled() bool {
	return s.cfg.StripeSecretKey != "" && s.cfg.StripePriceIDPro != ""
}

// CreateCheckoutSession starts a Stripe Checkout flow for the pro plan and
// returns the hosted checkout URL. The user's ID rides along in metadata so
// webhook events can be mapped back without a customer lookup.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, userID, successURL, cancelURL string) (string, error) {
	if !s.Enabled() {
		return "", ErrBillingNotConfigured
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user %s not found", userID)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.StripePriceIDPro),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(userID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"clerk_user_id": userID},
		},
	}
	params.Context = ctx
	params.AddMetadata("clerk_user_id", userID)

	customerID, err := s.customerIDFor(ctx, userID)
	if err != nil {
		return "", err
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	} else if user.Email != "" {
		params.CustomerEmail = stripe.String(user.Email)
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.logger.Info("created checkout session", "user_id", userID, "session_id", sess.ID)
	return sess.URL, nil
}

// CreatePortalSession returns a Stripe billing portal URL where the user
// can manage or cancel their subscription.
func (s *BillingService) CreatePortalSession(ctx context.Context, userID, returnURL string) (string, error) {
	if !s.Enabled() {
		return "", ErrBillingNotConfigured
	}

	customerID, err := s.customerIDFor(ctx, userID)
	if err != nil {
		return "", err
	}
	if customerID == "" {
		return "", ErrNoStripeCustomer
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := bpsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return sess.URL, nil
}

// ApplySubscription mirrors a Stripe subscription object into the local
// table and invalidates the user's cached entitlement. Called from webhook
// handling for created/updated/deleted subscription events.
func (s *BillingService) ApplySubscription(ctx context.Context, sub *stripe.Subscription) error {
	userID := sub.Metadata["clerk_user_id"]
	if userID == "" {
		// Older subscriptions may predate metadata; fall back to the
		// customer mapping.
		if sub.Customer != nil {
			existing, err := s.subscriptions.GetByStripeCustomerID(ctx, sub.Customer.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				userID = existing.UserID
			}
		}
	}
	if userID == "" {
		s.logger.Warn("subscription has no user mapping", "subscription_id", sub.ID)
		return nil
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	now := s.now().UTC()
	mirror := &models.Subscription{
		ID:                   ulid.Make().String(),
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		StripeCustomerID:     customerID,
		Plan:                 models.PlanPro,
		Status:               models.SubscriptionStatus(sub.Status),
		CurrentPeriodStart:   time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.subscriptions.Upsert(ctx, mirror); err != nil {
		return fmt.Errorf("failed to mirror subscription: %w", err)
	}

	s.entitlements.Invalidate(userID)

	s.logger.Info("mirrored subscription",
		"user_id", userID,
		"subscription_id", sub.ID,
		"status", sub.Status,
		"cancel_at_period_end", sub.CancelAtPeriodEnd,
	)
	return nil
}

// CurrentSubscription returns the user's entitling subscription, or nil on
// the free plan.
func (s *BillingService) CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.subscriptions.GetActiveByUserID(ctx, userID)
}

// customerIDFor returns the Stripe customer ID recorded for the user's
// most recent entitling subscription, if any.
func (s *BillingService) customerIDFor(ctx context.Context, userID string) (string, error) {
	sub, err := s.subscriptions.GetActiveByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return "", nil
	}
	return sub.StripeCustomerID, nil
}
