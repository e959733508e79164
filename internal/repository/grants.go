package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tiketku/internal/database"
	"tiketku/internal/models"
)

type GrantRepository struct {
	db *database.DB
}

func NewGrantRepository(db *database.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// ListDue returns grants whose expiry has passed and which still hold
// a nonzero remaining balance.
func (r *GrantRepository) ListDue(ctx context.Context, now time.Time) ([]models.CreditGrant, error) {
	query := `
		SELECT id, wallet_id, grant_type, free_credits_granted, paid_credits_granted,
		       free_credits_remaining, paid_credits_remaining, expires_at, purchase_package_id, created_at
		FROM credit_grants
		WHERE expires_at IS NOT NULL
		  AND expires_at <= $1
		  AND (free_credits_remaining > 0 OR paid_credits_remaining > 0)
		ORDER BY expires_at ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []models.CreditGrant
	for rows.Next() {
		var g models.CreditGrant
		err := rows.Scan(
			&g.ID,
			&g.WalletID,
			&g.GrantType,
			&g.FreeGranted,
			&g.PaidGranted,
			&g.FreeRemaining,
			&g.PaidRemaining,
			&g.ExpiresAt,
			&g.PackageID,
			&g.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}

	return grants, rows.Err()
}

// Expire zeroes one grant's remaining balance, debits the wallet cache
// by the same amounts and appends a reversing expiry ledger row, all in
// one transaction. A grant already at zero is a no-op, which makes the
// sweep idempotent. Returns the forfeited amounts.
func (r *GrantRepository) Expire(ctx context.Context, grantID int64) (forfeitedFree, forfeitedPaid int64, walletID int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, 0, err
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT wallet_id, free_credits_remaining, paid_credits_remaining
		FROM credit_grants
		WHERE id = $1
		FOR UPDATE`
	err = tx.QueryRowContext(ctx, lockQuery, grantID).Scan(&walletID, &forfeitedFree, &forfeitedPaid)
	if err == sql.ErrNoRows {
		return 0, 0, 0, nil
	}
	if err != nil {
		return 0, 0, 0, err
	}

	if forfeitedFree == 0 && forfeitedPaid == 0 {
		return 0, 0, walletID, nil
	}

	beforeFree, beforePaid, err := lockWalletTx(ctx, tx, walletID)
	if err != nil {
		return 0, 0, 0, err
	}

	description := fmt.Sprintf("Expired grant %d", grantID)
	if _, err := applyLedgerTx(ctx, tx, walletID, beforeFree, beforePaid,
		-forfeitedFree, -forfeitedPaid, models.TxExpiry, description, nil, nil); err != nil {
		return 0, 0, 0, err
	}

	zeroQuery := `
		UPDATE credit_grants
		SET free_credits_remaining = 0, paid_credits_remaining = 0
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, zeroQuery, grantID); err != nil {
		return 0, 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, 0, err
	}

	return forfeitedFree, forfeitedPaid, walletID, nil
}

func (r *GrantRepository) ListByWallet(ctx context.Context, walletID int64) ([]models.CreditGrant, error) {
	query := `
		SELECT id, wallet_id, grant_type, free_credits_granted, paid_credits_granted,
		       free_credits_remaining, paid_credits_remaining, expires_at, purchase_package_id, created_at
		FROM credit_grants
		WHERE wallet_id = $1
		ORDER BY expires_at ASC NULLS LAST, id ASC`

	rows, err := r.db.QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []models.CreditGrant
	for rows.Next() {
		var g models.CreditGrant
		err := rows.Scan(
			&g.ID,
			&g.WalletID,
			&g.GrantType,
			&g.FreeGranted,
			&g.PaidGranted,
			&g.FreeRemaining,
			&g.PaidRemaining,
			&g.ExpiresAt,
			&g.PackageID,
			&g.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}

	return grants, rows.Err()
}
