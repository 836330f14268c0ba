package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
)

// SQLiteJournalRepository implements JournalRepository for SQLite.
// Entry bodies arrive already encrypted; this layer never sees plaintext.
type SQLiteJournalRepository struct {
	db *sql.DB
}

// NewSQLiteJournalRepository creates a new SQLite journal repository.
func NewSQLiteJournalRepository(db *sql.DB) *SQLiteJournalRepository {
	return &SQLiteJournalRepository{db: db}
}

func (r *SQLiteJournalRepository) Upsert(ctx context.Context, entry *models.JournalEntry) error {
	query := `INSERT INTO journal_entries (id, user_id, entry_date, body_encrypted, sentiment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, entry_date) DO UPDATE SET
			body_encrypted = excluded.body_encrypted,
			sentiment = excluded.sentiment,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.EntryDate, entry.Body, entry.Sentiment,
		entry.CreatedAt.UTC().Format(time.RFC3339), entry.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (r *SQLiteJournalRepository) GetByDate(ctx context.Context, userID, entryDate string) (*models.JournalEntry, error) {
	query := `SELECT id, user_id, entry_date, body_encrypted, sentiment, created_at, updated_at
		FROM journal_entries WHERE user_id = ? AND entry_date = ?`
	return scanJournalEntry(r.db.QueryRowContext(ctx, query, userID, entryDate))
}

func (r *SQLiteJournalRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.JournalEntry, error) {
	query := `SELECT id, user_id, entry_date, body_encrypted, sentiment, created_at, updated_at
		FROM journal_entries WHERE user_id = ? ORDER BY entry_date DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *SQLiteJournalRepository) Delete(ctx context.Context, userID, entryDate string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE user_id = ? AND entry_date = ?`, userID, entryDate)
	return err
}

func scanJournalEntry(row rowScanner) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	var createdAt, updatedAt string
	err := row.Scan(&entry.ID, &entry.UserID, &entry.EntryDate, &entry.Body, &entry.Sentiment, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	entry.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &entry, nil
}
