// Package repository defines repository interfaces for data access.
// Note: identity (OAuth, sessions) is handled by Clerk. The user rows here
// mirror Clerk accounts and user_id fields hold Clerk user IDs.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/streak"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// SoftDelete marks the user deleted; rows are retained for audit.
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
	SetPlanOverride(ctx context.Context, id string, plan models.Plan) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
}

// SubscriptionRepository defines methods for the local Stripe subscription
// mirror. Rows are keyed on stripe_subscription_id so webhook replays
// converge on the same row.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
	// GetActiveByUserID returns the user's newest entitling subscription,
	// or nil when the user has none.
	GetActiveByUserID(ctx context.Context, userID string) (*models.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*models.Subscription, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, stripeSubID string, status models.SubscriptionStatus) error
}

// UsageEvent is one accepted increment, recorded for idempotency.
type UsageEvent struct {
	UserID    string
	EventID   string
	Resource  usage.Resource
	Period    string
	Amount    usage.Units
	CreatedAt time.Time
}

// UsageRepository defines methods for the monthly usage counters.
type UsageRepository interface {
	// Get returns the counter amount, 0 when no row exists.
	Get(ctx context.Context, userID string, resource usage.Resource, period string) (usage.Units, error)
	GetAll(ctx context.Context, userID, period string) (map[usage.Resource]usage.Units, error)
	// Increment atomically adds delta to the counter and returns the new
	// amount. Concurrent increments serialize in the database.
	Increment(ctx context.Context, userID string, resource usage.Resource, period string, delta usage.Units) (usage.Units, error)
	// ConsumeEvent records the idempotency event and applies its amount to
	// the counter in one transaction, so a failure leaves neither write
	// behind. Returns the resulting counter amount and whether this call
	// applied the delta; false means the (user, event, period) triple was
	// already recorded and the counter was left untouched.
	ConsumeEvent(ctx context.Context, event *UsageEvent) (usage.Units, bool, error)
	// GetEvent returns the recorded event for (user, event, period), or nil.
	GetEvent(ctx context.Context, userID, eventID, period string) (*UsageEvent, error)
	// Reset zeroes a single counter. Admin use only.
	Reset(ctx context.Context, userID string, resource usage.Resource, period string) error
	// DeletePeriodsBefore removes counters and events for periods strictly
	// before cutoff ("YYYY-MM"). Returns rows removed.
	DeletePeriodsBefore(ctx context.Context, cutoff string) (int64, error)
}

// StreakRepository defines methods for streak state persistence.
type StreakRepository interface {
	// Get returns the record for (user, activity), or nil when absent.
	Get(ctx context.Context, userID string, activity streak.Activity) (*streak.Record, error)
	GetAll(ctx context.Context, userID string) ([]*streak.Record, error)
	Upsert(ctx context.Context, rec *streak.Record) error
}

// ConversationRepository defines methods for chat thread data access.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Conversation, error)
	Update(ctx context.Context, conv *models.Conversation) error
	Delete(ctx context.Context, id string) error
	// RecordMessage bumps message_count and last_message_at.
	RecordMessage(ctx context.Context, id string, at time.Time) error
}

// MessageRepository defines methods for chat message data access.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]*models.Message, error)
	// ListRecentByConversationID returns the newest messages oldest-first,
	// for building LLM context windows.
	ListRecentByConversationID(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
	DeleteByConversationID(ctx context.Context, conversationID string) error
}

// JournalRepository defines methods for journal entry data access.
// Body is stored encrypted; the service layer owns the cipher.
type JournalRepository interface {
	Upsert(ctx context.Context, entry *models.JournalEntry) error
	GetByDate(ctx context.Context, userID, entryDate string) (*models.JournalEntry, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.JournalEntry, error)
	Delete(ctx context.Context, userID, entryDate string) error
}

// VoiceSessionRepository defines methods for voice session data access.
type VoiceSessionRepository interface {
	Create(ctx context.Context, session *models.VoiceSession) error
	GetByID(ctx context.Context, id string) (*models.VoiceSession, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.VoiceSession, error)
}

// ReferralRepository defines methods for referral redemption data access.
type ReferralRepository interface {
	// CreateRedemption inserts a redemption. Returns false when the
	// referred user already redeemed a code.
	CreateRedemption(ctx context.Context, redemption *models.ReferralRedemption) (bool, error)
	GetByReferredID(ctx context.Context, referredID string) (*models.ReferralRedemption, error)
	CountByReferrerID(ctx context.Context, referrerID string) (int, error)
	ListByReferrerID(ctx context.Context, referrerID string, limit, offset int) ([]*models.ReferralRedemption, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	User         UserRepository
	Subscription SubscriptionRepository
	Usage        UsageRepository
	Streak       StreakRepository
	Conversation ConversationRepository
	Message      MessageRepository
	Journal      JournalRepository
	VoiceSession VoiceSessionRepository
	Referral     ReferralRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		User:         NewSQLiteUserRepository(db),
		Subscription: NewSQLiteSubscriptionRepository(db),
		Usage:        NewSQLiteUsageRepository(db),
		Streak:       NewSQLiteStreakRepository(db),
		Conversation: NewSQLiteConversationRepository(db),
		Message:      NewSQLiteMessageRepository(db),
		Journal:      NewSQLiteJournalRepository(db),
		VoiceSession: NewSQLiteVoiceSessionRepository(db),
		Referral:     NewSQLiteReferralRepository(db),
	}
}
