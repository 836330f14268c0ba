package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/http/mw"
	"github.com/jmylchreest/kindred-api/internal/version"
)

// NewHumaConfig creates the shared Huma configuration for the API.
// This includes API metadata, security schemes, and tag definitions.
func NewHumaConfig(baseURL string) huma.Config {
	cfg := huma.DefaultConfig("Kindred API", version.Get().Short())
	cfg.Info.Description = "AI companion API with chat, journaling, voice, usage metering, and daily streaks."

	// Disable $schema field in responses - it conflicts with "schema" field in SDK code generators
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	// Add security scheme for Bearer auth
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Clerk session authentication. Include your session JWT in the Authorization header as `Bearer <token>`.",
		},
	}

	// Define OpenAPI tags with display names for documentation
	cfg.Tags = []*huma.Tag{
		{Name: "Chat", Description: "Companion conversations and messages", Extensions: map[string]any{"x-displayName": "Chat"}},
		{Name: "Journal", Description: "Daily journal entries", Extensions: map[string]any{"x-displayName": "Journal"}},
		{Name: "Voice", Description: "Voice sessions, transcription, and synthesis", Extensions: map[string]any{"x-displayName": "Voice"}},
		{Name: "Usage", Description: "Monthly usage counters and limits", Extensions: map[string]any{"x-displayName": "Usage"}},
		{Name: "Streaks", Description: "Daily activity streaks and milestones", Extensions: map[string]any{"x-displayName": "Streaks"}},
		{Name: "Billing", Description: "Stripe checkout, portal, and subscription state", Extensions: map[string]any{"x-displayName": "Billing"}},
		{Name: "Referrals", Description: "Referral codes and redemptions", Extensions: map[string]any{"x-displayName": "Referrals"}},
		{Name: "Music", Description: "Mood-based music suggestions (Pro)", Extensions: map[string]any{"x-displayName": "Music"}},
		{Name: "Account", Description: "Current user profile and companion settings", Extensions: map[string]any{"x-displayName": "Account"}},
		{Name: "Plans", Description: "Plan caps for the pricing page", Extensions: map[string]any{"x-displayName": "Plans"}},
		{Name: "Health", Description: "System health and status", Extensions: map[string]any{"x-displayName": "Health"}},
	}

	return cfg
}
