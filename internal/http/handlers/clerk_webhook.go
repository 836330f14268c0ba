package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/jmylchreest/kindred-api/internal/config"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// ClerkWebhookHandler handles Clerk user lifecycle webhooks.
type ClerkWebhookHandler struct {
	cfg     *config.Config
	userSvc *service.UserService
	logger  *slog.Logger
}

// NewClerkWebhookHandler creates a new Clerk webhook handler.
func NewClerkWebhookHandler(cfg *config.Config, userSvc *service.UserService, logger *slog.Logger) *ClerkWebhookHandler {
	return &ClerkWebhookHandler{
		cfg:     cfg,
		userSvc: userSvc,
		logger:  logger,
	}
}

// ClerkWebhookEvent represents a Clerk webhook event.
type ClerkWebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

// clerkUserData is the subset of Clerk's user object the sync needs.
type clerkUserData struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PrimaryEmailID string `json:"primary_email_address_id"`
	EmailAddresses []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (d *clerkUserData) email() string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (d *clerkUserData) displayName() string {
	switch {
	case d.FirstName != "" && d.LastName != "":
		return d.FirstName + " " + d.LastName
	case d.FirstName != "":
		return d.FirstName
	default:
		return d.LastName
	}
}

// HandleWebhook processes incoming Clerk webhooks.
func (h *ClerkWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 65536 // 64KB

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	// Verify webhook signature using Svix
	headers := http.Header{}
	headers.Set("svix-id", r.Header.Get("svix-id"))
	headers.Set("svix-timestamp", r.Header.Get("svix-timestamp"))
	headers.Set("svix-signature", r.Header.Get("svix-signature"))

	wh, err := svix.NewWebhook(h.cfg.ClerkWebhookSecret)
	if err != nil {
		h.logger.Error("failed to create webhook verifier", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := wh.Verify(payload, headers); err != nil {
		h.logger.Error("failed to verify webhook signature", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var event ClerkWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("failed to parse webhook event", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.handleEvent(ctx, event); err != nil {
		h.logger.Error("failed to handle webhook event", "type", event.Type, "error", err)
		// The sync is idempotent; let Clerk retry.
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleEvent routes events to appropriate handlers.
func (h *ClerkWebhookHandler) handleEvent(ctx context.Context, event ClerkWebhookEvent) error {
	h.logger.Info("received Clerk webhook", "type", event.Type)

	switch event.Type {
	case "user.created", "user.updated":
		var data clerkUserData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("failed to unmarshal user data: %w", err)
		}
		if data.ID == "" {
			h.logger.Warn("user event missing id")
			return nil
		}
		_, err := h.userSvc.SyncFromClerk(ctx, data.ID, data.email(), data.displayName())
		return err

	case "user.deleted":
		var data struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("failed to unmarshal user data: %w", err)
		}
		if data.ID == "" {
			return nil
		}
		return h.userSvc.Delete(ctx, data.ID)

	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		return nil
	}
}
