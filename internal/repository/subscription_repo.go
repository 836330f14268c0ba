package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
)

// SQLiteSubscriptionRepository implements SubscriptionRepository for SQLite.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

// NewSQLiteSubscriptionRepository creates a new SQLite subscription repository.
func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, stripe_subscription_id, stripe_customer_id, plan, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

// Upsert converges on stripe_subscription_id so out-of-order webhook
// replays settle on the latest state.
func (r *SQLiteSubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	query := `INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(stripe_subscription_id) DO UPDATE SET
			user_id = excluded.user_id,
			stripe_customer_id = excluded.stripe_customer_id,
			plan = excluded.plan,
			status = excluded.status,
			current_period_start = excluded.current_period_start,
			current_period_end = excluded.current_period_end,
			cancel_at_period_end = excluded.cancel_at_period_end,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.StripeSubscriptionID, sub.StripeCustomerID,
		string(sub.Plan), string(sub.Status),
		sub.CurrentPeriodStart.UTC().Format(time.RFC3339),
		sub.CurrentPeriodEnd.UTC().Format(time.RFC3339),
		sub.CancelAtPeriodEnd,
		sub.CreatedAt.UTC().Format(time.RFC3339),
		sub.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (r *SQLiteSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = ? AND status IN ('active', 'trialing')
		ORDER BY current_period_end DESC LIMIT 1`
	return scanSubscription(r.db.QueryRowContext(ctx, query, userID))
}

func (r *SQLiteSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_subscription_id = ?`
	return scanSubscription(r.db.QueryRowContext(ctx, query, stripeSubID))
}

func (r *SQLiteSubscriptionRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE stripe_customer_id = ? ORDER BY updated_at DESC LIMIT 1`
	return scanSubscription(r.db.QueryRowContext(ctx, query, customerID))
}

func (r *SQLiteSubscriptionRepository) UpdateStatus(ctx context.Context, stripeSubID string, status models.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = ?, updated_at = ? WHERE stripe_subscription_id = ?`
	_, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC().Format(time.RFC3339), stripeSubID)
	return err
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	var plan, status, periodStart, periodEnd, createdAt, updatedAt string
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.StripeSubscriptionID, &sub.StripeCustomerID,
		&plan, &status, &periodStart, &periodEnd, &sub.CancelAtPeriodEnd,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub.Plan = models.Plan(plan)
	sub.Status = models.SubscriptionStatus(status)
	sub.CurrentPeriodStart, _ = time.Parse(time.RFC3339, periodStart)
	sub.CurrentPeriodEnd, _ = time.Parse(time.RFC3339, periodEnd)
	sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sub, nil
}
