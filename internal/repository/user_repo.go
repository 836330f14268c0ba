package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
)

// SQLiteUserRepository implements UserRepository for SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = `id, email, display_name, companion_name, referral_code, is_admin, plan_override, created_at, updated_at, deleted_at`

func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, display_name, companion_name, referral_code, is_admin, plan_override, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.CompanionName, user.ReferralCode,
		user.IsAdmin, string(user.PlanOverride),
		user.CreatedAt.UTC().Format(time.RFC3339), user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? AND deleted_at IS NULL`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLiteUserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = ? AND deleted_at IS NULL`
	return scanUser(r.db.QueryRowContext(ctx, query, code))
}

func (r *SQLiteUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET email = ?, display_name = ?, companion_name = ?, referral_code = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.DisplayName, user.CompanionName, user.ReferralCode,
		time.Now().UTC().Format(time.RFC3339), user.ID,
	)
	return err
}

func (r *SQLiteUserRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	query := `UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ?`
	ts := deletedAt.UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, query, ts, ts, id)
	return err
}

func (r *SQLiteUserRepository) SetPlanOverride(ctx context.Context, id string, plan models.Plan) error {
	query := `UPDATE users SET plan_override = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, string(plan), time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteUserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	query := `UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, isAdmin, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&count)
	return count, err
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var planOverride, createdAt, updatedAt string
	var deletedAt sql.NullString
	err := row.Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.CompanionName, &user.ReferralCode,
		&user.IsAdmin, &planOverride, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.PlanOverride = models.Plan(planOverride)
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339, deletedAt.String)
		user.DeletedAt = &t
	}
	return &user, nil
}
