package repository

import (
	"context"
	"database/sql"

	"tiketku/internal/database"
	"tiketku/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, email, password_hash, role, merchant_id, referrer_id, registered_at, is_active
		FROM users
		WHERE email = $1 AND is_active = true`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.UserID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.MerchantID,
		&user.ReferrerID,
		&user.RegisteredAt,
		&user.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, email, password_hash, role, merchant_id, referrer_id, registered_at, is_active
		FROM users
		WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.UserID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.MerchantID,
		&user.ReferrerID,
		&user.RegisteredAt,
		&user.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, merchant_id, referrer_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, registered_at, is_active`

	return r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.MerchantID,
		user.ReferrerID,
	).Scan(&user.UserID, &user.RegisteredAt, &user.IsActive)
}

// CountReferrals counts active customers who registered with this user
// as their referrer. Drives the referral bonus threshold.
func (r *UserRepository) CountReferrals(ctx context.Context, referrerID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE referrer_id = $1 AND is_active = true`
	err := r.db.QueryRowContext(ctx, query, referrerID).Scan(&count)
	return count, err
}
