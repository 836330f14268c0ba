package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
)

// ========================================
// Conversation Repository
// ========================================

// SQLiteConversationRepository implements ConversationRepository for SQLite.
type SQLiteConversationRepository struct {
	db *sql.DB
}

// NewSQLiteConversationRepository creates a new SQLite conversation repository.
func NewSQLiteConversationRepository(db *sql.DB) *SQLiteConversationRepository {
	return &SQLiteConversationRepository{db: db}
}

const conversationColumns = `id, user_id, title, summary, message_count, last_message_at, created_at, updated_at`

func (r *SQLiteConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	query := `INSERT INTO conversations (id, user_id, title, summary, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		conv.ID, conv.UserID, conv.Title, conv.Summary,
		conv.CreatedAt.UTC().Format(time.RFC3339), conv.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (r *SQLiteConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`
	return scanConversation(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteConversationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE user_id = ? ORDER BY COALESCE(last_message_at, created_at) DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []*models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *SQLiteConversationRepository) Update(ctx context.Context, conv *models.Conversation) error {
	query := `UPDATE conversations SET title = ?, summary = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, conv.Title, conv.Summary, time.Now().UTC().Format(time.RFC3339), conv.ID)
	return err
}

func (r *SQLiteConversationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	return err
}

func (r *SQLiteConversationRepository) RecordMessage(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE conversations SET message_count = message_count + 1, last_message_at = ?, updated_at = ? WHERE id = ?`
	ts := at.UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, query, ts, ts, id)
	return err
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var conv models.Conversation
	var lastMessageAt sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(
		&conv.ID, &conv.UserID, &conv.Title, &conv.Summary, &conv.MessageCount,
		&lastMessageAt, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastMessageAt.Valid {
		t, _ := time.Parse(time.RFC3339, lastMessageAt.String)
		conv.LastMessageAt = &t
	}
	conv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	conv.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &conv, nil
}

// ========================================
// Message Repository
// ========================================

// SQLiteMessageRepository implements MessageRepository for SQLite.
type SQLiteMessageRepository struct {
	db *sql.DB
}

// NewSQLiteMessageRepository creates a new SQLite message repository.
func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

func (r *SQLiteMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `INSERT INTO messages (id, conversation_id, user_id, role, content, sentiment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.ConversationID, msg.UserID, string(msg.Role), msg.Content, msg.Sentiment,
		msg.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (r *SQLiteMessageRepository) ListByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]*models.Message, error) {
	query := `SELECT id, conversation_id, user_id, role, content, sentiment, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectMessages(rows)
}

// ListRecentByConversationID selects the newest rows then flips them so
// the caller gets chronological order.
func (r *SQLiteMessageRepository) ListRecentByConversationID(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	query := `SELECT id, conversation_id, user_id, role, content, sentiment, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *SQLiteMessageRepository) DeleteByConversationID(ctx context.Context, conversationID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID)
	return err
}

func collectMessages(rows *sql.Rows) ([]*models.Message, error) {
	var msgs []*models.Message
	for rows.Next() {
		var msg models.Message
		var role, createdAt string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &role, &msg.Content, &msg.Sentiment, &createdAt); err != nil {
			return nil, err
		}
		msg.Role = models.MessageRole(role)
		msg.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}
