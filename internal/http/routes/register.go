package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
// Pass real handler implementations for the main server, or stub implementations
// for OpenAPI generation.
func Register(api huma.API, h *Handlers) {
	// =========================================================================
	// Public Routes (no auth required)
	// =========================================================================

	// Health check
	mw.PublicGet(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithOperationID("healthCheck"))

	// Public plan caps (for dynamic pricing pages)
	mw.PublicGet(api, "/api/v1/plans", h.ListPlans,
		mw.WithTags("Plans"),
		mw.WithSummary("List plan limits"),
		mw.WithOperationID("listPlans"))

	// Kubernetes probes (hidden from docs - internal use only)
	mw.HiddenGet(api, "/healthz", h.Livez)
	mw.HiddenGet(api, "/readyz", h.Readyz)

	// =========================================================================
	// Protected Routes (require bearer auth)
	// =========================================================================

	// --- Usage ---
	mw.ProtectedGet(api, "/api/v1/usage/messages", h.Usage.GetMessageUsage,
		mw.WithTags("Usage"),
		mw.WithSummary("Get message usage"),
		mw.WithOperationID("getMessageUsage"))
	mw.ProtectedPost(api, "/api/v1/usage/messages", h.Usage.ConsumeMessages,
		mw.WithTags("Usage"),
		mw.WithSummary("Consume message quota"),
		mw.WithDescription("Checks the monthly message limit and increments the counter. Pass an eventId to make retries idempotent."),
		mw.WithOperationID("consumeMessages"))
	mw.ProtectedGet(api, "/api/v1/usage/voice", h.Usage.GetVoiceUsage,
		mw.WithTags("Usage"),
		mw.WithSummary("Get voice usage"),
		mw.WithOperationID("getVoiceUsage"))
	mw.ProtectedPost(api, "/api/v1/usage/voice", h.Usage.ConsumeVoice,
		mw.WithTags("Usage"),
		mw.WithSummary("Consume voice minutes"),
		mw.WithDescription("Checks the monthly voice minute limit and increments the counter. Minutes are metered in tenths."),
		mw.WithOperationID("consumeVoice"))

	// --- Streaks ---
	mw.ProtectedPost(api, "/api/v1/streaks", h.Streak.RecordStreak,
		mw.WithTags("Streaks"),
		mw.WithSummary("Record daily activity"),
		mw.WithDescription("Records today's activity for a streak. At most one advance per UTC day; repeats return alreadyUpdated."),
		mw.WithOperationID("recordStreak"))
	mw.ProtectedGet(api, "/api/v1/streaks", h.Streak.GetStreaks,
		mw.WithTags("Streaks"),
		mw.WithSummary("Get streak status"),
		mw.WithOperationID("getStreaks"))

	// --- Chat ---
	mw.ProtectedPost(api, "/api/v1/chat", h.Chat.SendMessage,
		mw.WithTags("Chat"),
		mw.WithSummary("Send a message"),
		mw.WithDescription("Sends a message to the companion. Consumes one message from the monthly quota and advances the chat streak."),
		mw.WithOperationID("sendMessage"))
	mw.ProtectedGet(api, "/api/v1/chat/conversations", h.Chat.ListConversations,
		mw.WithTags("Chat"),
		mw.WithSummary("List conversations"),
		mw.WithOperationID("listConversations"))
	mw.ProtectedGet(api, "/api/v1/chat/conversations/{id}/messages", h.Chat.GetMessages,
		mw.WithTags("Chat"),
		mw.WithSummary("Get conversation messages"),
		mw.WithOperationID("getMessages"))
	mw.ProtectedDelete(api, "/api/v1/chat/conversations/{id}", h.Chat.DeleteConversation,
		mw.WithTags("Chat"),
		mw.WithSummary("Delete conversation"),
		mw.WithOperationID("deleteConversation"))

	// --- Journal ---
	mw.ProtectedPost(api, "/api/v1/journal", h.Journal.WriteJournal,
		mw.WithTags("Journal"),
		mw.WithSummary("Write journal entry"),
		mw.WithDescription("Creates or replaces the entry for a date. Writing today's entry advances the journal streak; backfills do not."),
		mw.WithOperationID("writeJournal"))
	mw.ProtectedGet(api, "/api/v1/journal", h.Journal.ListJournal,
		mw.WithTags("Journal"),
		mw.WithSummary("List journal entries"),
		mw.WithOperationID("listJournal"))
	mw.ProtectedGet(api, "/api/v1/journal/{date}", h.Journal.GetJournal,
		mw.WithTags("Journal"),
		mw.WithSummary("Get journal entry"),
		mw.WithOperationID("getJournalEntry"))
	mw.ProtectedDelete(api, "/api/v1/journal/{date}", h.Journal.DeleteJournal,
		mw.WithTags("Journal"),
		mw.WithSummary("Delete journal entry"),
		mw.WithOperationID("deleteJournalEntry"))

	// --- Voice ---
	mw.ProtectedPost(api, "/api/v1/voice/sessions/start", h.Voice.StartVoiceSession,
		mw.WithTags("Voice"),
		mw.WithSummary("Start voice session"),
		mw.WithDescription("Checks session and minute limits before the client opens an audio stream."),
		mw.WithOperationID("startVoiceSession"))
	mw.ProtectedPost(api, "/api/v1/voice/sessions/complete", h.Voice.CompleteVoiceSession,
		mw.WithTags("Voice"),
		mw.WithSummary("Complete voice session"),
		mw.WithDescription("Records the session and charges its duration against the monthly voice minutes."),
		mw.WithOperationID("completeVoiceSession"))
	mw.ProtectedGet(api, "/api/v1/voice/sessions", h.Voice.ListVoiceSessions,
		mw.WithTags("Voice"),
		mw.WithSummary("List voice sessions"),
		mw.WithOperationID("listVoiceSessions"))
	mw.ProtectedPost(api, "/api/v1/voice/transcribe", h.Voice.Transcribe,
		mw.WithTags("Voice"),
		mw.WithSummary("Transcribe audio"),
		mw.WithOperationID("transcribe"))
	mw.ProtectedPost(api, "/api/v1/voice/synthesize", h.Voice.Synthesize,
		mw.WithTags("Voice"),
		mw.WithSummary("Synthesize speech"),
		mw.WithOperationID("synthesize"))

	// --- Billing ---
	mw.ProtectedPost(api, "/api/v1/billing/checkout", h.Billing.CreateCheckout,
		mw.WithTags("Billing"),
		mw.WithSummary("Create checkout session"),
		mw.WithOperationID("createCheckout"))
	mw.ProtectedPost(api, "/api/v1/billing/portal", h.Billing.CreatePortal,
		mw.WithTags("Billing"),
		mw.WithSummary("Create billing portal session"),
		mw.WithOperationID("createPortal"))
	mw.ProtectedGet(api, "/api/v1/billing/subscription", h.Billing.GetSubscription,
		mw.WithTags("Billing"),
		mw.WithSummary("Get subscription"),
		mw.WithOperationID("getSubscription"))

	// --- Referrals ---
	mw.ProtectedGet(api, "/api/v1/referrals", h.Referral.GetReferrals,
		mw.WithTags("Referrals"),
		mw.WithSummary("Get referral stats"),
		mw.WithOperationID("getReferrals"))
	mw.ProtectedPost(api, "/api/v1/referrals/redeem", h.Referral.RedeemReferral,
		mw.WithTags("Referrals"),
		mw.WithSummary("Redeem referral code"),
		mw.WithOperationID("redeemReferral"))

	// --- Account ---
	mw.ProtectedGet(api, "/api/v1/me", h.User.GetMe,
		mw.WithTags("Account"),
		mw.WithSummary("Get current user"),
		mw.WithOperationID("getMe"))
	mw.ProtectedPut(api, "/api/v1/me/companion", h.User.SetCompanionName,
		mw.WithTags("Account"),
		mw.WithSummary("Rename companion"),
		mw.WithOperationID("setCompanionName"))

	// --- Music (requires Pro plan) ---
	mw.ProtectedGet(api, "/api/v1/music/suggestions", h.Music.GetSuggestions,
		mw.WithTags("Music"),
		mw.WithSummary("Get music suggestions"),
		mw.WithOperationID("getMusicSuggestions"))

	// --- Admin Routes (require admin flag, hidden from OpenAPI) ---
	mw.ProtectedGet(api, "/api/v1/admin/users", h.Admin.ListUsers,
		mw.WithTags("Admin"),
		mw.WithSummary("List users"),
		mw.WithOperationID("adminListUsers"),
		mw.WithHidden())
	mw.ProtectedGet(api, "/api/v1/admin/users/{id}", h.Admin.GetUser,
		mw.WithTags("Admin"),
		mw.WithSummary("Get user detail"),
		mw.WithOperationID("adminGetUser"),
		mw.WithHidden())
	mw.ProtectedPut(api, "/api/v1/admin/users/{id}/plan", h.Admin.SetPlanOverride,
		mw.WithTags("Admin"),
		mw.WithSummary("Set plan override"),
		mw.WithOperationID("adminSetPlanOverride"),
		mw.WithHidden())
	mw.ProtectedPut(api, "/api/v1/admin/users/{id}/admin", h.Admin.SetAdmin,
		mw.WithTags("Admin"),
		mw.WithSummary("Set admin flag"),
		mw.WithOperationID("adminSetAdmin"),
		mw.WithHidden())
	mw.ProtectedPost(api, "/api/v1/admin/users/{id}/usage/reset", h.Admin.ResetUsage,
		mw.WithTags("Admin"),
		mw.WithSummary("Reset usage counter"),
		mw.WithOperationID("adminResetUsage"),
		mw.WithHidden())
}
