package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
)

// SQLiteVoiceSessionRepository implements VoiceSessionRepository for SQLite.
type SQLiteVoiceSessionRepository struct {
	db *sql.DB
}

// NewSQLiteVoiceSessionRepository creates a new SQLite voice session repository.
func NewSQLiteVoiceSessionRepository(db *sql.DB) *SQLiteVoiceSessionRepository {
	return &SQLiteVoiceSessionRepository{db: db}
}

func (r *SQLiteVoiceSessionRepository) Create(ctx context.Context, session *models.VoiceSession) error {
	query := `INSERT INTO voice_sessions (id, user_id, kind, duration_seconds, audio_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, string(session.Kind), session.DurationSeconds,
		session.AudioKey, session.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (r *SQLiteVoiceSessionRepository) GetByID(ctx context.Context, id string) (*models.VoiceSession, error) {
	query := `SELECT id, user_id, kind, duration_seconds, audio_key, created_at
		FROM voice_sessions WHERE id = ?`
	return scanVoiceSession(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteVoiceSessionRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.VoiceSession, error) {
	query := `SELECT id, user_id, kind, duration_seconds, audio_key, created_at
		FROM voice_sessions WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []*models.VoiceSession
	for rows.Next() {
		session, err := scanVoiceSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func scanVoiceSession(row rowScanner) (*models.VoiceSession, error) {
	var session models.VoiceSession
	var kind, createdAt string
	err := row.Scan(&session.ID, &session.UserID, &kind, &session.DurationSeconds, &session.AudioKey, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.Kind = models.VoiceSessionKind(kind)
	session.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &session, nil
}
