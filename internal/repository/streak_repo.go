package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/kindred-api/internal/streak"
)

// SQLiteStreakRepository implements StreakRepository for SQLite.
type SQLiteStreakRepository struct {
	db *sql.DB
}

// NewSQLiteStreakRepository creates a new SQLite streak repository.
func NewSQLiteStreakRepository(db *sql.DB) *SQLiteStreakRepository {
	return &SQLiteStreakRepository{db: db}
}

func (r *SQLiteStreakRepository) Get(ctx context.Context, userID string, activity streak.Activity) (*streak.Record, error) {
	query := `SELECT user_id, activity, current_streak, longest_streak, last_activity_date, updated_at
		FROM streaks WHERE user_id = ? AND activity = ?`
	rec, err := scanStreak(r.db.QueryRowContext(ctx, query, userID, string(activity)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *SQLiteStreakRepository) GetAll(ctx context.Context, userID string) ([]*streak.Record, error) {
	query := `SELECT user_id, activity, current_streak, longest_streak, last_activity_date, updated_at
		FROM streaks WHERE user_id = ? ORDER BY activity`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*streak.Record
	for rows.Next() {
		rec, err := scanStreak(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SQLiteStreakRepository) Upsert(ctx context.Context, rec *streak.Record) error {
	query := `INSERT INTO streaks (user_id, activity, current_streak, longest_streak, last_activity_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, activity) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_activity_date = excluded.last_activity_date,
			updated_at = excluded.updated_at`
	lastDate := ""
	if !rec.LastActivity.IsZero() {
		lastDate = rec.LastActivity.String()
	}
	_, err := r.db.ExecContext(ctx, query,
		rec.UserID, string(rec.Activity), rec.Current, rec.Longest,
		lastDate, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStreak(row rowScanner) (*streak.Record, error) {
	var rec streak.Record
	var activity, lastDate, updatedAt string
	if err := row.Scan(&rec.UserID, &activity, &rec.Current, &rec.Longest, &lastDate, &updatedAt); err != nil {
		return nil, err
	}
	rec.Activity = streak.Activity(activity)
	if lastDate != "" {
		d, err := streak.ParseDate(lastDate)
		if err != nil {
			return nil, err
		}
		rec.LastActivity = d
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}
