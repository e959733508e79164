package repository

import (
	"context"
	"database/sql"
	"time"

	"tiketku/internal/database"
	"tiketku/internal/models"
)

type PackageRepository struct {
	db *database.DB
}

func NewPackageRepository(db *database.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) ListActive(ctx context.Context) ([]models.PurchasePackage, error) {
	var packages []models.PurchasePackage
	query := `
		SELECT id, name, price_cents, paid_credits, free_credits, validity_days, is_active, created_at
		FROM purchase_packages
		WHERE is_active = true
		ORDER BY price_cents ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PurchasePackage
		err := rows.Scan(
			&p.ID, &p.Name, &p.PriceCents, &p.PaidCredits, &p.FreeCredits,
			&p.ValidityDays, &p.IsActive, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}

	return packages, rows.Err()
}

func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*models.PurchasePackage, error) {
	p := &models.PurchasePackage{}
	query := `
		SELECT id, name, price_cents, paid_credits, free_credits, validity_days, is_active, created_at
		FROM purchase_packages
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.PriceCents, &p.PaidCredits, &p.FreeCredits,
		&p.ValidityDays, &p.IsActive, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return p, err
}

func (r *PackageRepository) CreatePurchase(ctx context.Context, purchase *models.PackagePurchase) error {
	query := `
		INSERT INTO package_purchases (wallet_id, package_id, order_id, status, amount_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		purchase.WalletID,
		purchase.PackageID,
		purchase.OrderID,
		purchase.Status,
		purchase.AmountCents,
	).Scan(&purchase.ID, &purchase.CreatedAt, &purchase.UpdatedAt)
}

func (r *PackageRepository) GetPurchaseByOrderID(ctx context.Context, orderID string) (*models.PackagePurchase, error) {
	purchase := &models.PackagePurchase{}
	query := `
		SELECT id, wallet_id, package_id, order_id, payment_id, status, amount_cents, created_at, updated_at
		FROM package_purchases
		WHERE order_id = $1`

	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&purchase.ID,
		&purchase.WalletID,
		&purchase.PackageID,
		&purchase.OrderID,
		&purchase.PaymentID,
		&purchase.Status,
		&purchase.AmountCents,
		&purchase.CreatedAt,
		&purchase.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return purchase, err
}

func (r *PackageRepository) MarkInitiated(ctx context.Context, orderID, paymentID string) error {
	query := `
		UPDATE package_purchases
		SET status = 'INITIATED', payment_id = $1, updated_at = NOW()
		WHERE order_id = $2 AND status = 'PENDING'`

	_, err := r.db.ExecContext(ctx, query, paymentID, orderID)
	return err
}

// CompletePurchase flips one purchase to COMPLETED, guarded by the
// current status so a replayed gateway notification credits the wallet
// only once. Returns false when the purchase was already completed.
func (r *PackageRepository) CompletePurchase(ctx context.Context, orderID string) (bool, error) {
	query := `
		UPDATE package_purchases
		SET status = 'COMPLETED', updated_at = NOW()
		WHERE order_id = $1 AND status IN ('PENDING', 'INITIATED')
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *PackageRepository) MarkFailed(ctx context.Context, orderID string) error {
	query := `
		UPDATE package_purchases
		SET status = 'FAILED', updated_at = NOW()
		WHERE order_id = $1 AND status IN ('PENDING', 'INITIATED')`

	_, err := r.db.ExecContext(ctx, query, orderID)
	return err
}

// ListStalePending returns purchases stuck in a pre-completion state
// longer than maxAge, for the reconcile pass against the gateway.
func (r *PackageRepository) ListStalePending(ctx context.Context, maxAge time.Duration) ([]models.PackagePurchase, error) {
	var purchases []models.PackagePurchase
	query := `
		SELECT id, wallet_id, package_id, order_id, payment_id, status, amount_cents, created_at, updated_at
		FROM package_purchases
		WHERE status IN ('PENDING', 'INITIATED')
		  AND created_at <= NOW() - $1::interval
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, maxAge.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PackagePurchase
		err := rows.Scan(
			&p.ID, &p.WalletID, &p.PackageID, &p.OrderID, &p.PaymentID,
			&p.Status, &p.AmountCents, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}

	return purchases, rows.Err()
}
