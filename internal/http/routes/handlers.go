// Package routes provides shared route registration for the Kindred API.
// This allows both the main server and the OpenAPI generator to use
// the same route definitions, ensuring the spec is always in sync.
package routes

import (
	"context"

	"github.com/jmylchreest/kindred-api/internal/http/handlers"
)

// UsageHandlers defines the interface for usage metering operations.
type UsageHandlers interface {
	GetMessageUsage(ctx context.Context, input *struct{}) (*handlers.GetMessageUsageOutput, error)
	ConsumeMessages(ctx context.Context, input *handlers.ConsumeMessagesInput) (*handlers.ConsumeMessagesOutput, error)
	GetVoiceUsage(ctx context.Context, input *struct{}) (*handlers.GetVoiceUsageOutput, error)
	ConsumeVoice(ctx context.Context, input *handlers.ConsumeVoiceInput) (*handlers.ConsumeVoiceOutput, error)
}

// StreakHandlers defines the interface for streak operations.
type StreakHandlers interface {
	RecordStreak(ctx context.Context, input *handlers.RecordStreakInput) (*handlers.RecordStreakOutput, error)
	GetStreaks(ctx context.Context, input *struct{}) (*handlers.GetStreaksOutput, error)
}

// ChatHandlers defines the interface for companion chat operations.
type ChatHandlers interface {
	SendMessage(ctx context.Context, input *handlers.SendMessageInput) (*handlers.SendMessageOutput, error)
	ListConversations(ctx context.Context, input *handlers.ListConversationsInput) (*handlers.ListConversationsOutput, error)
	GetMessages(ctx context.Context, input *handlers.GetMessagesInput) (*handlers.GetMessagesOutput, error)
	DeleteConversation(ctx context.Context, input *handlers.DeleteConversationInput) (*handlers.DeleteConversationOutput, error)
}

// JournalHandlers defines the interface for journal operations.
type JournalHandlers interface {
	WriteJournal(ctx context.Context, input *handlers.WriteJournalInput) (*handlers.WriteJournalOutput, error)
	GetJournal(ctx context.Context, input *handlers.GetJournalInput) (*handlers.GetJournalOutput, error)
	ListJournal(ctx context.Context, input *handlers.ListJournalInput) (*handlers.ListJournalOutput, error)
	DeleteJournal(ctx context.Context, input *handlers.DeleteJournalInput) (*handlers.DeleteJournalOutput, error)
}

// VoiceHandlers defines the interface for voice session operations.
type VoiceHandlers interface {
	StartVoiceSession(ctx context.Context, input *handlers.StartVoiceSessionInput) (*handlers.StartVoiceSessionOutput, error)
	CompleteVoiceSession(ctx context.Context, input *handlers.CompleteVoiceSessionInput) (*handlers.CompleteVoiceSessionOutput, error)
	Transcribe(ctx context.Context, input *handlers.TranscribeInput) (*handlers.TranscribeOutput, error)
	Synthesize(ctx context.Context, input *handlers.SynthesizeInput) (*handlers.SynthesizeOutput, error)
	ListVoiceSessions(ctx context.Context, input *handlers.ListVoiceSessionsInput) (*handlers.ListVoiceSessionsOutput, error)
}

// BillingHandlers defines the interface for Stripe billing operations.
type BillingHandlers interface {
	CreateCheckout(ctx context.Context, input *handlers.CreateCheckoutInput) (*handlers.CreateCheckoutOutput, error)
	CreatePortal(ctx context.Context, input *handlers.CreatePortalInput) (*handlers.CreatePortalOutput, error)
	GetSubscription(ctx context.Context, input *struct{}) (*handlers.GetSubscriptionOutput, error)
}

// ReferralHandlers defines the interface for referral operations.
type ReferralHandlers interface {
	GetReferrals(ctx context.Context, input *struct{}) (*handlers.GetReferralsOutput, error)
	RedeemReferral(ctx context.Context, input *handlers.RedeemReferralInput) (*handlers.RedeemReferralOutput, error)
}

// MusicHandlers defines the interface for music suggestion operations.
// Routes using it require the Pro plan.
type MusicHandlers interface {
	GetSuggestions(ctx context.Context, input *handlers.MusicSuggestionsInput) (*handlers.MusicSuggestionsOutput, error)
}

// UserHandlers defines the interface for the current user's profile.
type UserHandlers interface {
	GetMe(ctx context.Context, input *struct{}) (*handlers.GetMeOutput, error)
	SetCompanionName(ctx context.Context, input *handlers.SetCompanionNameInput) (*handlers.SetCompanionNameOutput, error)
}

// AdminHandlers defines the interface for admin operations.
// These endpoints are hidden from public OpenAPI documentation.
type AdminHandlers interface {
	ListUsers(ctx context.Context, input *handlers.ListUsersInput) (*handlers.ListUsersOutput, error)
	GetUser(ctx context.Context, input *handlers.GetAdminUserInput) (*handlers.GetAdminUserOutput, error)
	SetPlanOverride(ctx context.Context, input *handlers.SetPlanOverrideInput) (*handlers.SetPlanOverrideOutput, error)
	SetAdmin(ctx context.Context, input *handlers.SetAdminInput) (*handlers.SetAdminOutput, error)
	ResetUsage(ctx context.Context, input *handlers.ResetUsageInput) (*handlers.ResetUsageOutput, error)
}

// Handlers aggregates all handler interfaces for route registration.
// For the main server, pass real handler implementations.
// For OpenAPI generation, pass stub implementations.
type Handlers struct {
	// Public endpoints
	HealthCheck func(ctx context.Context, input *struct{}) (*handlers.HealthCheckOutput, error)
	ListPlans   func(ctx context.Context, input *struct{}) (*handlers.ListPlansOutput, error)

	// Kubernetes probes (hidden from docs)
	Livez  func(ctx context.Context, input *struct{}) (*handlers.LivezOutput, error)
	Readyz func(ctx context.Context, input *struct{}) (*handlers.ReadyzOutput, error)

	// Protected endpoint handlers
	Usage    UsageHandlers
	Streak   StreakHandlers
	Chat     ChatHandlers
	Journal  JournalHandlers
	Voice    VoiceHandlers
	Billing  BillingHandlers
	Referral ReferralHandlers
	Music    MusicHandlers
	User     UserHandlers
	Admin    AdminHandlers
}
