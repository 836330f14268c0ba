package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
)

// SQLiteReferralRepository implements ReferralRepository for SQLite.
type SQLiteReferralRepository struct {
	db *sql.DB
}

// NewSQLiteReferralRepository creates a new SQLite referral repository.
func NewSQLiteReferralRepository(db *sql.DB) *SQLiteReferralRepository {
	return &SQLiteReferralRepository{db: db}
}

// CreateRedemption inserts the redemption row. The unique referred_id
// index makes a second redemption by the same account a silent no-op,
// reported through the bool.
func (r *SQLiteReferralRepository) CreateRedemption(ctx context.Context, redemption *models.ReferralRedemption) (bool, error) {
	query := `INSERT OR IGNORE INTO referral_redemptions (id, code, referrer_id, referred_id, created_at)
		VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		redemption.ID, redemption.Code, redemption.ReferrerID, redemption.ReferredID,
		redemption.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *SQLiteReferralRepository) GetByReferredID(ctx context.Context, referredID string) (*models.ReferralRedemption, error) {
	query := `SELECT id, code, referrer_id, referred_id, created_at
		FROM referral_redemptions WHERE referred_id = ?`
	return scanRedemption(r.db.QueryRowContext(ctx, query, referredID))
}

func (r *SQLiteReferralRepository) CountByReferrerID(ctx context.Context, referrerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM referral_redemptions WHERE referrer_id = ?`, referrerID,
	).Scan(&count)
	return count, err
}

func (r *SQLiteReferralRepository) ListByReferrerID(ctx context.Context, referrerID string, limit, offset int) ([]*models.ReferralRedemption, error) {
	query := `SELECT id, code, referrer_id, referred_id, created_at
		FROM referral_redemptions WHERE referrer_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, referrerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var redemptions []*models.ReferralRedemption
	for rows.Next() {
		redemption, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		redemptions = append(redemptions, redemption)
	}
	return redemptions, rows.Err()
}

func scanRedemption(row rowScanner) (*models.ReferralRedemption, error) {
	var redemption models.ReferralRedemption
	var createdAt string
	err := row.Scan(&redemption.ID, &redemption.Code, &redemption.ReferrerID, &redemption.ReferredID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	redemption.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &redemption, nil
}
