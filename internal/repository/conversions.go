package repository

import (
	"context"
	"database/sql"
	"time"

	"tiketku/internal/apperrors"
	"tiketku/internal/database"
	"tiketku/internal/models"
)

type ConversionRepository struct {
	db *database.DB
}

func NewConversionRepository(db *database.DB) *ConversionRepository {
	return &ConversionRepository{db: db}
}

const conversionColumns = `id, rm_unit, credits_per_rm, paid_credit_percentage, free_credit_percentage,
	paid_to_free_ratio, effective_from, valid_until, status, created_at, updated_at`

func scanConversion(row interface{ Scan(...any) error }) (*models.Conversion, error) {
	c := &models.Conversion{}
	err := row.Scan(
		&c.ID,
		&c.RMUnit,
		&c.CreditsPerRM,
		&c.PaidCreditPct,
		&c.FreeCreditPct,
		&c.PaidToFreeRatio,
		&c.EffectiveFrom,
		&c.ValidUntil,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ConversionRepository) Create(ctx context.Context, c *models.Conversion) error {
	query := `
		INSERT INTO conversions
			(rm_unit, credits_per_rm, paid_credit_percentage, free_credit_percentage,
			 paid_to_free_ratio, effective_from, valid_until, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		c.RMUnit,
		c.CreditsPerRM,
		c.PaidCreditPct,
		c.FreeCreditPct,
		c.PaidToFreeRatio,
		c.EffectiveFrom,
		c.ValidUntil,
		c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetActive returns the single active conversion, or nil.
func (r *ConversionRepository) GetActive(ctx context.Context) (*models.Conversion, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE status = 'ACTIVE'`
	c, err := scanConversion(r.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *ConversionRepository) GetByID(ctx context.Context, id int64) (*models.Conversion, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE id = $1`
	c, err := scanConversion(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *ConversionRepository) List(ctx context.Context) ([]models.Conversion, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions ORDER BY effective_from DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversions []models.Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		conversions = append(conversions, *c)
	}

	return conversions, rows.Err()
}

// Activate promotes one conversion to ACTIVE and retires whichever row
// currently holds that status, in a single transaction. The row locks
// make two concurrent activations serialize rather than leaving two
// active rates. effectiveFrom is stamped as the moment the rate takes
// over; the retired row's valid_until closes at now.
func (r *ConversionRepository) Activate(ctx context.Context, id int64, effectiveFrom, now time.Time) (*models.Conversion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	lockQuery := `SELECT status FROM conversions WHERE id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, lockQuery, id).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Entity: "conversion", ID: id}
	}
	if err != nil {
		return nil, err
	}
	if status == models.ConversionActive {
		// already active, nothing to do
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return r.GetByID(ctx, id)
	}

	deactivateQuery := `
		UPDATE conversions
		SET status = 'INACTIVE', valid_until = $1, updated_at = NOW()
		WHERE status = 'ACTIVE'`
	if _, err := tx.ExecContext(ctx, deactivateQuery, now); err != nil {
		return nil, err
	}

	activateQuery := `
		UPDATE conversions
		SET status = 'ACTIVE', effective_from = $1, updated_at = NOW()
		WHERE id = $2`
	if _, err := tx.ExecContext(ctx, activateQuery, effectiveFrom, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// ListDueScheduled returns scheduled conversions whose effective time
// has arrived.
func (r *ConversionRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]models.Conversion, error) {
	query := `SELECT ` + conversionColumns + `
		FROM conversions
		WHERE status = 'SCHEDULED' AND effective_from <= $1
		ORDER BY effective_from ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversions []models.Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		conversions = append(conversions, *c)
	}

	return conversions, rows.Err()
}
