// Package models defines the domain types shared across repositories,
// services, and handlers.
package models

import "time"

// Plan is a subscription tier.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// User is an account. ID is the Clerk user ID so webhook events and JWT
// subjects address rows directly.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	CompanionName string     `json:"companionName"`
	ReferralCode  string     `json:"referralCode"`
	IsAdmin       bool       `json:"isAdmin"`
	PlanOverride  Plan       `json:"planOverride,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}

// SubscriptionStatus mirrors the Stripe subscription lifecycle states we
// care about.
type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
)

// Entitled reports whether the status grants paid-plan access.
func (s SubscriptionStatus) Entitled() bool {
	return s == SubscriptionActive || s == SubscriptionTrialing
}

// Subscription is the local mirror of a Stripe subscription, kept in sync
// by webhook events.
type Subscription struct {
	ID                   string             `json:"id"`
	UserID               string             `json:"userId"`
	StripeSubscriptionID string             `json:"stripeSubscriptionId"`
	StripeCustomerID     string             `json:"stripeCustomerId"`
	Plan                 Plan               `json:"plan"`
	Status               SubscriptionStatus `json:"status"`
	CurrentPeriodStart   time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time          `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool               `json:"cancelAtPeriodEnd"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// Conversation is a chat thread between a user and their companion.
type Conversation struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary,omitempty"`
	MessageCount  int        `json:"messageCount"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// MessageRole distinguishes who authored a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleCompanion MessageRole = "companion"
)

// Message is a single chat message within a conversation.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	UserID         string      `json:"userId"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Sentiment      string      `json:"sentiment,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// JournalEntry is a dated journal entry. Body is plaintext in memory and
// encrypted at rest by the repository layer.
type JournalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	EntryDate string    `json:"entryDate"` // YYYY-MM-DD
	Body      string    `json:"body"`
	Sentiment string    `json:"sentiment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VoiceSessionKind distinguishes speech-to-text from text-to-speech
// sessions.
type VoiceSessionKind string

const (
	VoiceTranscription VoiceSessionKind = "transcription"
	VoiceSynthesis     VoiceSessionKind = "synthesis"
)

// VoiceSession records one completed voice interaction and the seconds
// consumed, for metering and history.
type VoiceSession struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Kind            VoiceSessionKind `json:"kind"`
	DurationSeconds int              `json:"durationSeconds"`
	AudioKey        string           `json:"audioKey,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// ReferralRedemption records one referral code redemption. ReferredID is
// unique so an account can only ever be referred once.
type ReferralRedemption struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	ReferrerID string    `json:"referrerId"`
	ReferredID string    `json:"referredId"`
	CreatedAt  time.Time `json:"createdAt"`
}
