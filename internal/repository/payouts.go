package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"tiketku/internal/database"
	"tiketku/internal/models"
)

type PayoutRepository struct {
	db *database.DB
}

func NewPayoutRepository(db *database.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// ListEligibleSlots returns ended slots that have confirmed bookings but
// no payout row yet.
func (r *PayoutRepository) ListEligibleSlots(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT s.id
		FROM event_slots s
		JOIN bookings b ON b.slot_id = s.id AND b.status = 'CONFIRMED'
		LEFT JOIN merchant_slot_payouts p ON p.slot_id = s.id
		WHERE s.ends_at <= $1 AND p.id IS NULL
		ORDER BY s.id`

	rows, err := r.db.QueryContext(ctx, query, now)
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

// SlotBreakdown aggregates one slot's confirmed booked revenue per age
// group. Every confirmed booking item counts toward gross; attendance
// rides along as a reporting figure only.
func (r *PayoutRepository) SlotBreakdown(ctx context.Context, slotID int64) ([]models.PayoutLine, int64, error) {
	linesQuery := `
		SELECT bi.age_group_id, COALESCE(ag.label, 'General'),
		       SUM(bi.quantity), COALESCE(SUM(rd.quantity_redeemed), 0), SUM(bi.price_cents)
		FROM booking_items bi
		JOIN bookings b ON b.id = bi.booking_id
		LEFT JOIN age_groups ag ON ag.id = bi.age_group_id
		LEFT JOIN redemptions rd ON rd.booking_item_id = bi.id AND rd.purpose = 'ATTENDANCE'
		WHERE b.slot_id = $1 AND b.status = 'CONFIRMED'
		GROUP BY bi.age_group_id, ag.label
		ORDER BY bi.age_group_id NULLS FIRST`

	rows, err := r.db.QueryContext(ctx, linesQuery, slotID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var lines []models.PayoutLine
	for rows.Next() {
		var line models.PayoutLine
		if err := rows.Scan(&line.AgeGroupID, &line.AgeGroup, &line.Quantity, &line.Attended, &line.GrossCents); err != nil {
			return nil, 0, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var merchantID int64
	merchantQuery := `
		SELECT e.merchant_id
		FROM event_slots s
		JOIN events e ON e.id = s.event_id
		WHERE s.id = $1`
	if err := r.db.QueryRowContext(ctx, merchantQuery, slotID).Scan(&merchantID); err != nil {
		return nil, 0, err
	}

	return lines, merchantID, nil
}

// Create inserts one payout row. The unique (merchant_id, slot_id)
// constraint plus ON CONFLICT DO NOTHING makes recalculation a no-op,
// so the payout job can be re-run safely. Returns false when the row
// already existed.
func (r *PayoutRepository) Create(ctx context.Context, p *models.MerchantSlotPayout) (bool, error) {
	if p.Breakdown == nil {
		p.Breakdown = []models.PayoutLine{}
	}
	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO merchant_slot_payouts
			(merchant_id, slot_id, gross_amount_cents, commission_cents, net_amount_cents,
			 breakdown, status, available_at, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (merchant_id, slot_id) DO NOTHING
		RETURNING id`

	err = r.db.QueryRowContext(ctx, query,
		p.MerchantID,
		p.SlotID,
		p.GrossCents,
		p.CommissionCents,
		p.NetCents,
		breakdown,
		p.Status,
		p.AvailableAt,
		p.CalculatedAt,
	).Scan(&p.ID)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

const payoutViewColumns = `
	p.id, p.merchant_id, m.name, e.id, e.title, p.slot_id, s.starts_at,
	p.gross_amount_cents, p.commission_cents, p.net_amount_cents,
	p.breakdown, p.status, p.available_at, p.paid_at`

const payoutViewJoins = `
	FROM merchant_slot_payouts p
	JOIN merchants m ON m.id = p.merchant_id
	JOIN event_slots s ON s.id = p.slot_id
	JOIN events e ON e.id = s.event_id`

func (r *PayoutRepository) ListAll(ctx context.Context) ([]models.PayoutView, error) {
	query := `SELECT ` + payoutViewColumns + payoutViewJoins + ` ORDER BY p.calculated_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayoutViews(rows)
}

func (r *PayoutRepository) ListByMerchant(ctx context.Context, merchantID int64) ([]models.PayoutView, error) {
	query := `SELECT ` + payoutViewColumns + payoutViewJoins + `
		WHERE p.merchant_id = $1
		ORDER BY p.calculated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayoutViews(rows)
}

// MarkRequested moves a merchant's PENDING payouts to REQUESTED once
// their hold period has elapsed. Returns how many rows moved.
func (r *PayoutRepository) MarkRequested(ctx context.Context, merchantID int64, payoutIDs []int64, now time.Time) (int64, error) {
	query := `
		UPDATE merchant_slot_payouts
		SET status = 'REQUESTED'
		WHERE merchant_id = $1
		  AND id = ANY($2)
		  AND status = 'PENDING'
		  AND available_at <= $3`

	result, err := r.db.ExecContext(ctx, query, merchantID, pq.Array(payoutIDs), now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// MarkPaid stamps payouts as PAID. Rows already paid keep their original
// paid_at, which makes the operation idempotent.
func (r *PayoutRepository) MarkPaid(ctx context.Context, payoutIDs []int64, now time.Time) (int64, error) {
	query := `
		UPDATE merchant_slot_payouts
		SET status = 'PAID', paid_at = $1
		WHERE id = ANY($2) AND status != 'PAID'`

	result, err := r.db.ExecContext(ctx, query, now, pq.Array(payoutIDs))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanPayoutViews(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]models.PayoutView, error) {
	var views []models.PayoutView
	for rows.Next() {
		var v models.PayoutView
		var breakdown []byte
		var startsAt, availableAt time.Time
		var paidAt *time.Time
		err := rows.Scan(
			&v.PayoutID,
			&v.MerchantID,
			&v.MerchantName,
			&v.EventID,
			&v.EventTitle,
			&v.SlotID,
			&startsAt,
			&v.GrossCents,
			&v.CommissionCents,
			&v.NetCents,
			&breakdown,
			&v.Status,
			&availableAt,
			&paidAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(breakdown, &v.Breakdown); err != nil {
			return nil, err
		}
		v.SlotStartsAt = startsAt.Format(time.RFC3339)
		v.AvailableAt = availableAt.Format(time.RFC3339)
		if paidAt != nil {
			formatted := paidAt.Format(time.RFC3339)
			v.PaidAt = &formatted
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
