package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmylchreest/kindred-api/internal/usage"
)

// SQLiteUsageRepository implements UsageRepository for SQLite.
type SQLiteUsageRepository struct {
	db *sql.DB
}

// NewSQLiteUsageRepository creates a new SQLite usage repository.
func NewSQLiteUsageRepository(db *sql.DB) *SQLiteUsageRepository {
	return &SQLiteUsageRepository{db: db}
}

func (r *SQLiteUsageRepository) Get(ctx context.Context, userID string, resource usage.Resource, period string) (usage.Units, error) {
	query := `SELECT amount FROM usage_counters WHERE user_id = ? AND resource = ? AND period = ?`
	var amount int64
	err := r.db.QueryRowContext(ctx, query, userID, string(resource), period).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return usage.Units(amount), nil
}

func (r *SQLiteUsageRepository) GetAll(ctx context.Context, userID, period string) (map[usage.Resource]usage.Units, error) {
	query := `SELECT resource, amount FROM usage_counters WHERE user_id = ? AND period = ?`
	rows, err := r.db.QueryContext(ctx, query, userID, period)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counters := make(map[usage.Resource]usage.Units)
	for rows.Next() {
		var resource string
		var amount int64
		if err := rows.Scan(&resource, &amount); err != nil {
			return nil, err
		}
		counters[usage.Resource(resource)] = usage.Units(amount)
	}
	return counters, rows.Err()
}

const incrementQuery = `INSERT INTO usage_counters (user_id, resource, period, amount, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id, resource, period) DO UPDATE SET
		amount = usage_counters.amount + excluded.amount,
		updated_at = excluded.updated_at
	RETURNING amount`

// Increment relies on the upsert resolving against the existing row, so
// two concurrent increments both land and the returned amount reflects
// this writer's contribution.
func (r *SQLiteUsageRepository) Increment(ctx context.Context, userID string, resource usage.Resource, period string, delta usage.Units) (usage.Units, error) {
	var amount int64
	err := r.db.QueryRowContext(ctx, incrementQuery,
		userID, string(resource), period, int64(delta), time.Now().UTC().Format(time.RFC3339),
	).Scan(&amount)
	if err != nil {
		return 0, err
	}
	return usage.Units(amount), nil
}

// ConsumeEvent runs the dedup insert and the counter upsert in a single
// transaction: either both rows land or neither does, so a failed attempt
// never leaves a marker claiming the delta was applied.
func (r *SQLiteUsageRepository) ConsumeEvent(ctx context.Context, event *UsageEvent) (usage.Units, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO usage_events (user_id, event_id, resource, period, amount, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
		event.UserID, event.EventID, string(event.Resource), event.Period,
		int64(event.Amount), event.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, false, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, false, err
	}

	var amount int64
	if inserted == 0 {
		// Duplicate event: report the counter as it stands.
		err := tx.QueryRowContext(ctx,
			`SELECT amount FROM usage_counters WHERE user_id = ? AND resource = ? AND period = ?`,
			event.UserID, string(event.Resource), event.Period,
		).Scan(&amount)
		if err != nil && err != sql.ErrNoRows {
			return 0, false, err
		}
		return usage.Units(amount), false, tx.Commit()
	}

	err = tx.QueryRowContext(ctx, incrementQuery,
		event.UserID, string(event.Resource), event.Period,
		int64(event.Amount), time.Now().UTC().Format(time.RFC3339),
	).Scan(&amount)
	if err != nil {
		return 0, false, err
	}
	return usage.Units(amount), true, tx.Commit()
}

func (r *SQLiteUsageRepository) GetEvent(ctx context.Context, userID, eventID, period string) (*UsageEvent, error) {
	query := `SELECT user_id, event_id, resource, period, amount, created_at
		FROM usage_events WHERE user_id = ? AND event_id = ? AND period = ?`
	var event UsageEvent
	var resource, createdAt string
	var amount int64
	err := r.db.QueryRowContext(ctx, query, userID, eventID, period).Scan(
		&event.UserID, &event.EventID, &resource, &event.Period, &amount, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	event.Resource = usage.Resource(resource)
	event.Amount = usage.Units(amount)
	event.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &event, nil
}

func (r *SQLiteUsageRepository) Reset(ctx context.Context, userID string, resource usage.Resource, period string) error {
	query := `UPDATE usage_counters SET amount = 0, updated_at = ? WHERE user_id = ? AND resource = ? AND period = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), userID, string(resource), period)
	return err
}

// DeletePeriodsBefore removes old counters and their idempotency events.
// Period keys are zero-padded "YYYY-MM" so string comparison orders them
// chronologically.
func (r *SQLiteUsageRepository) DeletePeriodsBefore(ctx context.Context, cutoff string) (int64, error) {
	if !validPeriod(cutoff) {
		return 0, nil
	}
	var total int64
	result, err := r.db.ExecContext(ctx, `DELETE FROM usage_counters WHERE period < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	if n, err := result.RowsAffected(); err == nil {
		total += n
	}
	result, err = r.db.ExecContext(ctx, `DELETE FROM usage_events WHERE period < ?`, cutoff)
	if err != nil {
		return total, err
	}
	if n, err := result.RowsAffected(); err == nil {
		total += n
	}
	return total, nil
}

func validPeriod(period string) bool {
	if len(period) != 7 || period[4] != '-' {
		return false
	}
	for i, c := range period {
		if i == 4 {
			continue
		}
		if !strings.ContainsRune("0123456789", c) {
			return false
		}
	}
	return true
}
