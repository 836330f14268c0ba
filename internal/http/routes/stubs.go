package routes

import (
	"context"

	"github.com/jmylchreest/kindred-api/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// All handlers return nil responses - these are only used for OpenAPI generation
// where Huma extracts type information from function signatures.
func StubHandlers() *Handlers {
	return &Handlers{
		// Public endpoints
		HealthCheck: stubHealthCheck,
		ListPlans:   stubListPlans,

		// Kubernetes probes
		Livez:  stubLivez,
		Readyz: stubReadyz,

		// Protected endpoint handlers
		Usage:    &stubUsageHandlers{},
		Streak:   &stubStreakHandlers{},
		Chat:     &stubChatHandlers{},
		Journal:  &stubJournalHandlers{},
		Voice:    &stubVoiceHandlers{},
		Billing:  &stubBillingHandlers{},
		Referral: &stubReferralHandlers{},
		Music:    &stubMusicHandlers{},
		User:     &stubUserHandlers{},
		Admin:    &stubAdminHandlers{},
	}
}

// --- Public endpoint stubs ---

func stubHealthCheck(_ context.Context, _ *struct{}) (*handlers.HealthCheckOutput, error) {
	return nil, nil
}

func stubListPlans(_ context.Context, _ *struct{}) (*handlers.ListPlansOutput, error) {
	return nil, nil
}

func stubLivez(_ context.Context, _ *struct{}) (*handlers.LivezOutput, error) {
	return nil, nil
}

func stubReadyz(_ context.Context, _ *struct{}) (*handlers.ReadyzOutput, error) {
	return nil, nil
}

// --- Usage handlers stub ---

type stubUsageHandlers struct{}

func (s *stubUsageHandlers) GetMessageUsage(_ context.Context, _ *struct{}) (*handlers.GetMessageUsageOutput, error) {
	return nil, nil
}

func (s *stubUsageHandlers) ConsumeMessages(_ context.Context, _ *handlers.ConsumeMessagesInput) (*handlers.ConsumeMessagesOutput, error) {
	return nil, nil
}

func (s *stubUsageHandlers) GetVoiceUsage(_ context.Context, _ *struct{}) (*handlers.GetVoiceUsageOutput, error) {
	return nil, nil
}

func (s *stubUsageHandlers) ConsumeVoice(_ context.Context, _ *handlers.ConsumeVoiceInput) (*handlers.ConsumeVoiceOutput, error) {
	return nil, nil
}

// --- Streak handlers stub ---

type stubStreakHandlers struct{}

func (s *stubStreakHandlers) RecordStreak(_ context.Context, _ *handlers.RecordStreakInput) (*handlers.RecordStreakOutput, error) {
	return nil, nil
}

func (s *stubStreakHandlers) GetStreaks(_ context.Context, _ *struct{}) (*handlers.GetStreaksOutput, error) {
	return nil, nil
}

// --- Chat handlers stub ---

type stubChatHandlers struct{}

func (s *stubChatHandlers) SendMessage(_ context.Context, _ *handlers.SendMessageInput) (*handlers.SendMessageOutput, error) {
	return nil, nil
}

func (s *stubChatHandlers) ListConversations(_ context.Context, _ *handlers.ListConversationsInput) (*handlers.ListConversationsOutput, error) {
	return nil, nil
}

func (s *stubChatHandlers) GetMessages(_ context.Context, _ *handlers.GetMessagesInput) (*handlers.GetMessagesOutput, error) {
	return nil, nil
}

func (s *stubChatHandlers) DeleteConversation(_ context.Context, _ *handlers.DeleteConversationInput) (*handlers.DeleteConversationOutput, error) {
	return nil, nil
}

// --- Journal handlers stub ---

type stubJournalHandlers struct{}

func (s *stubJournalHandlers) WriteJournal(_ context.Context, _ *handlers.WriteJournalInput) (*handlers.WriteJournalOutput, error) {
	return nil, nil
}

func (s *stubJournalHandlers) GetJournal(_ context.Context, _ *handlers.GetJournalInput) (*handlers.GetJournalOutput, error) {
	return nil, nil
}

func (s *stubJournalHandlers) ListJournal(_ context.Context, _ *handlers.ListJournalInput) (*handlers.ListJournalOutput, error) {
	return nil, nil
}

func (s *stubJournalHandlers) DeleteJournal(_ context.Context, _ *handlers.DeleteJournalInput) (*handlers.DeleteJournalOutput, error) {
	return nil, nil
}

// --- Voice handlers stub ---

type stubVoiceHandlers struct{}

func (s *stubVoiceHandlers) StartVoiceSession(_ context.Context, _ *handlers.StartVoiceSessionInput) (*handlers.StartVoiceSessionOutput, error) {
	return nil, nil
}

func (s *stubVoiceHandlers) CompleteVoiceSession(_ context.Context, _ *handlers.CompleteVoiceSessionInput) (*handlers.CompleteVoiceSessionOutput, error) {
	return nil, nil
}

func (s *stubVoiceHandlers) Transcribe(_ context.Context, _ *handlers.TranscribeInput) (*handlers.TranscribeOutput, error) {
	return nil, nil
}

func (s *stubVoiceHandlers) Synthesize(_ context.Context, _ *handlers.SynthesizeInput) (*handlers.SynthesizeOutput, error) {
	return nil, nil
}

func (s *stubVoiceHandlers) ListVoiceSessions(_ context.Context, _ *handlers.ListVoiceSessionsInput) (*handlers.ListVoiceSessionsOutput, error) {
	return nil, nil
}

// --- Billing handlers stub ---

type stubBillingHandlers struct{}

func (s *stubBillingHandlers) CreateCheckout(_ context.Context, _ *handlers.CreateCheckoutInput) (*handlers.CreateCheckoutOutput, error) {
	return nil, nil
}

func (s *stubBillingHandlers) CreatePortal(_ context.Context, _ *handlers.CreatePortalInput) (*handlers.CreatePortalOutput, error) {
	return nil, nil
}

func (s *stubBillingHandlers) GetSubscription(_ context.Context, _ *struct{}) (*handlers.GetSubscriptionOutput, error) {
	return nil, nil
}

// --- Referral handlers stub ---

type stubReferralHandlers struct{}

func (s *stubReferralHandlers) GetReferrals(_ context.Context, _ *struct{}) (*handlers.GetReferralsOutput, error) {
	return nil, nil
}

func (s *stubReferralHandlers) RedeemReferral(_ context.Context, _ *handlers.RedeemReferralInput) (*handlers.RedeemReferralOutput, error) {
	return nil, nil
}

// --- Music handlers stub ---

type stubMusicHandlers struct{}

func (s *stubMusicHandlers) GetSuggestions(_ context.Context, _ *handlers.MusicSuggestionsInput) (*handlers.MusicSuggestionsOutput, error) {
	return nil, nil
}

// --- User handlers stub ---

type stubUserHandlers struct{}

func (s *stubUserHandlers) GetMe(_ context.Context, _ *struct{}) (*handlers.GetMeOutput, error) {
	return nil, nil
}

func (s *stubUserHandlers) SetCompanionName(_ context.Context, _ *handlers.SetCompanionNameInput) (*handlers.SetCompanionNameOutput, error) {
	return nil, nil
}

// --- Admin handlers stub ---

type stubAdminHandlers struct{}

func (s *stubAdminHandlers) ListUsers(_ context.Context, _ *handlers.ListUsersInput) (*handlers.ListUsersOutput, error) {
	return nil, nil
}

func (s *stubAdminHandlers) GetUser(_ context.Context, _ *handlers.GetAdminUserInput) (*handlers.GetAdminUserOutput, error) {
	return nil, nil
}

func (s *stubAdminHandlers) SetPlanOverride(_ context.Context, _ *handlers.SetPlanOverrideInput) (*handlers.SetPlanOverrideOutput, error) {
	return nil, nil
}

func (s *stubAdminHandlers) SetAdmin(_ context.Context, _ *handlers.SetAdminInput) (*handlers.SetAdminOutput, error) {
	return nil, nil
}

func (s *stubAdminHandlers) ResetUsage(_ context.Context, _ *handlers.ResetUsageInput) (*handlers.ResetUsageOutput, error) {
	return nil, nil
}
