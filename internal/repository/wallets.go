package repository

import (
	"context"
	"database/sql"
	"time"

	"tiketku/internal/apperrors"
	"tiketku/internal/credits"
	"tiketku/internal/database"
	"tiketku/internal/models"
)

type WalletRepository struct {
	db *database.DB
}

func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GrantSpec describes a credit grant created together with a wallet credit.
type GrantSpec struct {
	GrantType string
	Free      int64
	Paid      int64
	ExpiresAt *time.Time
	PackageID *int64
}

func (r *WalletRepository) GetByCustomerID(ctx context.Context, customerID int64) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	query := `
		SELECT id, customer_id, cached_free_credits, cached_paid_credits, created_at, updated_at
		FROM wallets
		WHERE customer_id = $1`

	err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&wallet.ID,
		&wallet.CustomerID,
		&wallet.FreeCredits,
		&wallet.PaidCredits,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return wallet, err
}

func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	query := `
		SELECT id, customer_id, cached_free_credits, cached_paid_credits, created_at, updated_at
		FROM wallets
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&wallet.ID,
		&wallet.CustomerID,
		&wallet.FreeCredits,
		&wallet.PaidCredits,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return wallet, err
}

// Create inserts an empty wallet for a customer.
func (r *WalletRepository) Create(ctx context.Context, customerID int64) (*models.Wallet, error) {
	wallet := &models.Wallet{CustomerID: customerID}
	query := `
		INSERT INTO wallets (customer_id)
		VALUES ($1)
		RETURNING id, cached_free_credits, cached_paid_credits, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&wallet.ID,
		&wallet.FreeCredits,
		&wallet.PaidCredits,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	return wallet, err
}

// Credit adds free/paid credits to a wallet in a single transaction:
// ledger row, cache update and (optionally) a new credit grant all
// commit or roll back together.
func (r *WalletRepository) Credit(ctx context.Context, walletID, free, paid int64, txType, description string, packageID, bookingID *int64, grant *GrantSpec) (*models.CreditTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	beforeFree, beforePaid, err := lockWalletTx(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}

	ledger, err := applyLedgerTx(ctx, tx, walletID, beforeFree, beforePaid, free, paid, txType, description, packageID, bookingID)
	if err != nil {
		return nil, err
	}

	if grant != nil {
		insertGrant := `
			INSERT INTO credit_grants
				(wallet_id, grant_type, free_credits_granted, paid_credits_granted,
				 free_credits_remaining, paid_credits_remaining, expires_at, purchase_package_id)
			VALUES ($1, $2, $3, $4, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, insertGrant,
			walletID, grant.GrantType, grant.Free, grant.Paid, grant.ExpiresAt, grant.PackageID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return ledger, nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, walletID int64, limit int) ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	query := `
		SELECT id, wallet_id, type, delta_free, delta_paid, before_free, before_paid,
		       description, purchase_package_id, booking_id, created_at
		FROM credit_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.CreditTransaction
		err := rows.Scan(
			&t.ID,
			&t.WalletID,
			&t.Type,
			&t.DeltaFree,
			&t.DeltaPaid,
			&t.BeforeFree,
			&t.BeforePaid,
			&t.Description,
			&t.PackageID,
			&t.BookingID,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

// SumLedger re-sums the transaction log for a wallet. Used by the
// reconciliation routine to verify the cached balances.
func (r *WalletRepository) SumLedger(ctx context.Context, walletID int64) (free, paid int64, err error) {
	query := `
		SELECT COALESCE(SUM(delta_free), 0), COALESCE(SUM(delta_paid), 0)
		FROM credit_transactions
		WHERE wallet_id = $1`

	err = r.db.QueryRowContext(ctx, query, walletID).Scan(&free, &paid)
	return free, paid, err
}

func (r *WalletRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM wallets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// lockWalletTx takes the row lock that serializes all balance mutations
// for one wallet and returns the balances as of the lock.
func lockWalletTx(ctx context.Context, tx *sql.Tx, walletID int64) (beforeFree, beforePaid int64, err error) {
	query := `SELECT cached_free_credits, cached_paid_credits FROM wallets WHERE id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, walletID).Scan(&beforeFree, &beforePaid)
	if err == sql.ErrNoRows {
		return 0, 0, &apperrors.NotFoundError{Entity: "wallet", ID: walletID}
	}
	return beforeFree, beforePaid, err
}

// applyLedgerTx appends one immutable ledger row and moves the cached
// balances by the same deltas, inside the caller's transaction. The
// wallet row must already be locked via lockWalletTx.
func applyLedgerTx(ctx context.Context, tx *sql.Tx, walletID, beforeFree, beforePaid, deltaFree, deltaPaid int64, txType, description string, packageID, bookingID *int64) (*models.CreditTransaction, error) {
	afterFree := beforeFree + deltaFree
	afterPaid := beforePaid + deltaPaid
	if afterFree < 0 || afterPaid < 0 {
		return nil, apperrors.NewInvariant(
			"wallet %d balance would go negative (free %d, paid %d)", walletID, afterFree, afterPaid)
	}

	updateQuery := `
		UPDATE wallets
		SET cached_free_credits = $1, cached_paid_credits = $2, updated_at = NOW()
		WHERE id = $3`
	if _, err := tx.ExecContext(ctx, updateQuery, afterFree, afterPaid, walletID); err != nil {
		return nil, err
	}

	ledger := &models.CreditTransaction{
		WalletID:    walletID,
		Type:        txType,
		DeltaFree:   deltaFree,
		DeltaPaid:   deltaPaid,
		BeforeFree:  beforeFree,
		BeforePaid:  beforePaid,
		Description: description,
		PackageID:   packageID,
		BookingID:   bookingID,
	}

	insertQuery := `
		INSERT INTO credit_transactions
			(wallet_id, type, delta_free, delta_paid, before_free, before_paid,
			 description, purchase_package_id, booking_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := tx.QueryRowContext(ctx, insertQuery,
		ledger.WalletID,
		ledger.Type,
		ledger.DeltaFree,
		ledger.DeltaPaid,
		ledger.BeforeFree,
		ledger.BeforePaid,
		ledger.Description,
		ledger.PackageID,
		ledger.BookingID,
	).Scan(&ledger.ID, &ledger.CreatedAt)

	return ledger, err
}

// drawDownGrantsTx distributes a debit across the wallet's grants,
// nearest expiry first, inside the caller's transaction.
func drawDownGrantsTx(ctx context.Context, tx *sql.Tx, walletID, debitFree, debitPaid int64) error {
	if debitFree == 0 && debitPaid == 0 {
		return nil
	}

	query := `
		SELECT id, wallet_id, grant_type, free_credits_granted, paid_credits_granted,
		       free_credits_remaining, paid_credits_remaining, expires_at, purchase_package_id, created_at
		FROM credit_grants
		WHERE wallet_id = $1
		  AND (free_credits_remaining > 0 OR paid_credits_remaining > 0)
		ORDER BY expires_at ASC NULLS LAST, id ASC
		FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, walletID)
	if err != nil {
		return err
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
			return err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	draws := credits.ConsumeGrants(grants, debitFree, debitPaid)
	updateQuery := `
		UPDATE credit_grants
		SET free_credits_remaining = free_credits_remaining - $1,
		    paid_credits_remaining = paid_credits_remaining - $2
		WHERE id = $3`
	for _, draw := range draws {
		if _, err := tx.ExecContext(ctx, updateQuery, draw.Free, draw.Paid, draw.GrantID); err != nil {
			return err
		}
	}

	return nil
}
