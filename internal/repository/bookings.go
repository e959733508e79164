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

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// SettleParams carries everything needed to reserve capacity and debit
// the wallet for one booking. Items hold the per-age-group cost
// snapshots computed by the service from the slot's price list.
type SettleParams struct {
	CustomerID    int64
	WalletID      int64
	SlotID        int64
	Items         []models.BookingItem
	NeedFree      int64
	NeedPaid      int64
	Ratio         int64
	AllowFallback bool
	Description   string
}

// CreateSettled reserves slot capacity, debits the wallet under the
// paid-credit fallback rule and creates the booking with its items and
// pending redemptions, all in one transaction. Slot and wallet rows are
// locked first, so concurrent bookings against the same slot or wallet
// serialize instead of over-selling or double-spending.
func (r *BookingRepository) CreateSettled(ctx context.Context, p SettleParams) (*models.Booking, credits.DebitPlan, error) {
	var plan credits.DebitPlan

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, plan, err
	}
	defer tx.Rollback()

	var capacity *int
	var bookedQuantity int
	slotLock := `SELECT capacity, booked_quantity FROM event_slots WHERE id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, slotLock, p.SlotID).Scan(&capacity, &bookedQuantity)
	if err == sql.ErrNoRows {
		return nil, plan, &apperrors.NotFoundError{Entity: "slot", ID: p.SlotID}
	}
	if err != nil {
		return nil, plan, err
	}

	totalQuantity := 0
	for _, item := range p.Items {
		totalQuantity += item.Quantity
	}

	if capacity != nil && bookedQuantity+totalQuantity > *capacity {
		return nil, plan, &apperrors.SlotFullError{
			SlotID:    p.SlotID,
			Capacity:  *capacity,
			Requested: totalQuantity,
		}
	}

	beforeFree, beforePaid, err := lockWalletTx(ctx, tx, p.WalletID)
	if err != nil {
		return nil, plan, err
	}

	plan, err = credits.PlanDebit(beforeFree, beforePaid, p.NeedFree, p.NeedPaid, p.Ratio, p.AllowFallback)
	if err != nil {
		return nil, credits.DebitPlan{}, err
	}

	reserveQuery := `
		UPDATE event_slots
		SET booked_quantity = booked_quantity + $1, updated_at = NOW()
		WHERE id = $2`
	if _, err := tx.ExecContext(ctx, reserveQuery, totalQuantity, p.SlotID); err != nil {
		return nil, plan, err
	}

	booking := &models.Booking{
		SlotID:     p.SlotID,
		CustomerID: p.CustomerID,
		Status:     models.BookingConfirmed,
		Quantity:   totalQuantity,
	}
	bookingQuery := `
		INSERT INTO bookings (slot_id, customer_id, status, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, booked_at, updated_at`
	err = tx.QueryRowContext(ctx, bookingQuery,
		booking.SlotID, booking.CustomerID, booking.Status, booking.Quantity,
	).Scan(&booking.ID, &booking.BookedAt, &booking.UpdatedAt)
	if err != nil {
		return nil, plan, err
	}

	itemQuery := `
		INSERT INTO booking_items (booking_id, age_group_id, quantity, price_cents, free_credits, paid_credits)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	redemptionQuery := `
		INSERT INTO redemptions (booking_item_id, purpose, status, quantity)
		VALUES ($1, $2, 'PENDING', $3)`
	for i := range p.Items {
		item := &p.Items[i]
		item.BookingID = booking.ID
		err := tx.QueryRowContext(ctx, itemQuery,
			item.BookingID, item.AgeGroupID, item.Quantity,
			item.PriceCents, item.FreeCredits, item.PaidCredits,
		).Scan(&item.ID)
		if err != nil {
			return nil, plan, err
		}

		for _, purpose := range []string{models.RedemptionClaim, models.RedemptionAttendance} {
			if _, err := tx.ExecContext(ctx, redemptionQuery, item.ID, purpose, item.Quantity); err != nil {
				return nil, plan, err
			}
		}
	}
	booking.Items = p.Items

	if _, err := applyLedgerTx(ctx, tx, p.WalletID, beforeFree, beforePaid,
		-plan.DebitFree, -plan.DebitPaid, models.TxBooking, p.Description, nil, &booking.ID); err != nil {
		return nil, plan, err
	}

	if err := drawDownGrantsTx(ctx, tx, p.WalletID, plan.DebitFree, plan.DebitPaid); err != nil {
		return nil, plan, err
	}

	if err := tx.Commit(); err != nil {
		return nil, plan, err
	}

	return booking, plan, nil
}

// CancelOutcome reports what a cancellation did to the wallet.
type CancelOutcome struct {
	Refunded bool
	Free     int64
	Paid     int64
	WalletID int64
	SlotID   int64
}

// CancelSettled transitions a confirmed booking to CANCELLED (credits
// forfeited) or REFUNDED (credits restored), releases slot capacity and
// removes pending redemption placeholders, atomically. The booking must
// never end up cancelled with capacity still held or refunded without
// its ledger entry, so everything shares one transaction.
func (r *BookingRepository) CancelSettled(ctx context.Context, bookingID, walletID int64, refund bool, description string) (CancelOutcome, error) {
	var outcome CancelOutcome
	outcome.WalletID = walletID

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return outcome, err
	}
	defer tx.Rollback()

	var status string
	var slotID int64
	var quantity int
	lockQuery := `SELECT status, slot_id, quantity FROM bookings WHERE id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, lockQuery, bookingID).Scan(&status, &slotID, &quantity)
	if err == sql.ErrNoRows {
		return outcome, &apperrors.NotFoundError{Entity: "booking", ID: bookingID}
	}
	if err != nil {
		return outcome, err
	}
	if status != models.BookingConfirmed {
		return outcome, apperrors.NewValidation("booking %d is %s and cannot be cancelled", bookingID, status)
	}
	outcome.SlotID = slotID

	sumQuery := `
		SELECT COALESCE(SUM(free_credits), 0), COALESCE(SUM(paid_credits), 0)
		FROM booking_items
		WHERE booking_id = $1`
	if err := tx.QueryRowContext(ctx, sumQuery, bookingID).Scan(&outcome.Free, &outcome.Paid); err != nil {
		return outcome, err
	}

	// lock the slot before adjusting capacity
	var dummy int
	slotLock := `SELECT booked_quantity FROM event_slots WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, slotLock, slotID).Scan(&dummy); err != nil {
		return outcome, err
	}

	releaseQuery := `
		UPDATE event_slots
		SET booked_quantity = booked_quantity - $1, updated_at = NOW()
		WHERE id = $2`
	if _, err := tx.ExecContext(ctx, releaseQuery, quantity, slotID); err != nil {
		return outcome, err
	}

	newStatus := models.BookingCancelled
	if refund {
		newStatus = models.BookingRefunded
		beforeFree, beforePaid, err := lockWalletTx(ctx, tx, walletID)
		if err != nil {
			return outcome, err
		}
		if _, err := applyLedgerTx(ctx, tx, walletID, beforeFree, beforePaid,
			outcome.Free, outcome.Paid, models.TxRefund, description, nil, &bookingID); err != nil {
			return outcome, err
		}
		outcome.Refunded = true
	}

	deleteRedemptions := `
		DELETE FROM redemptions
		WHERE status = 'PENDING'
		  AND booking_item_id IN (SELECT id FROM booking_items WHERE booking_id = $1)`
	if _, err := tx.ExecContext(ctx, deleteRedemptions, bookingID); err != nil {
		return outcome, err
	}

	statusQuery := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`
	if _, err := tx.ExecContext(ctx, statusQuery, newStatus, bookingID); err != nil {
		return outcome, err
	}

	if err := tx.Commit(); err != nil {
		return outcome, err
	}

	return outcome, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, slot_id, customer_id, status, quantity, booked_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.SlotID,
		&booking.CustomerID,
		&booking.Status,
		&booking.Quantity,
		&booking.BookedAt,
		&booking.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return booking, err
}

func (r *BookingRepository) GetByCustomerID(ctx context.Context, customerID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `
		SELECT id, slot_id, customer_id, status, quantity, booked_at, updated_at
		FROM bookings
		WHERE customer_id = $1
		ORDER BY booked_at DESC`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.SlotID,
			&booking.CustomerID,
			&booking.Status,
			&booking.Quantity,
			&booking.BookedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *BookingRepository) GetItems(ctx context.Context, bookingID int64) ([]models.BookingItem, error) {
	var items []models.BookingItem
	query := `
		SELECT id, booking_id, age_group_id, quantity, price_cents, free_credits, paid_credits
		FROM booking_items
		WHERE booking_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.BookingItem
		err := rows.Scan(
			&item.ID,
			&item.BookingID,
			&item.AgeGroupID,
			&item.Quantity,
			&item.PriceCents,
			&item.FreeCredits,
			&item.PaidCredits,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// ItemContext resolves the ownership chain of one booking item, for
// redemption authorization.
type ItemContext struct {
	BookingID     int64
	BookingStatus string
	SlotID        int64
	EventID       int64
	MerchantID    int64
}

func (r *BookingRepository) GetItemContext(ctx context.Context, bookingItemID int64) (*ItemContext, error) {
	ic := &ItemContext{}
	query := `
		SELECT b.id, b.status, s.id, e.id, e.merchant_id
		FROM booking_items bi
		JOIN bookings b ON b.id = bi.booking_id
		JOIN event_slots s ON s.id = b.slot_id
		JOIN events e ON e.id = s.event_id
		WHERE bi.id = $1`

	err := r.db.QueryRowContext(ctx, query, bookingItemID).Scan(
		&ic.BookingID, &ic.BookingStatus, &ic.SlotID, &ic.EventID, &ic.MerchantID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ic, err
}

// SetRedemptionStatus transitions one item's PENDING redemption of the
// given purpose. Returns false when no pending row matched, which makes
// a double transition visible to the caller.
func (r *BookingRepository) SetRedemptionStatus(ctx context.Context, bookingItemID int64, purpose, status string, now time.Time) (bool, error) {
	query := `
		UPDATE redemptions
		SET status = $1, redeemed_at = $2
		WHERE booking_item_id = $3 AND purpose = $4 AND status = 'PENDING'
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, status, now, bookingItemID, purpose).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BookingRepository) GetRedemption(ctx context.Context, bookingItemID int64, purpose string) (*models.Redemption, error) {
	rd := &models.Redemption{}
	query := `
		SELECT id, booking_item_id, purpose, status, quantity, quantity_redeemed, redeemed_at, created_at
		FROM redemptions
		WHERE booking_item_id = $1 AND purpose = $2`

	err := r.db.QueryRowContext(ctx, query, bookingItemID, purpose).Scan(
		&rd.ID, &rd.BookingItemID, &rd.Purpose, &rd.Status, &rd.Quantity,
		&rd.QuantityRedeemed, &rd.RedeemedAt, &rd.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rd, err
}

// RedeemQuantity adds to a pending redemption's redeemed count and
// closes the row once the full quantity is redeemed. The guard keeps
// the count within quantity even when two redeems race; false means no
// pending row could absorb the amount.
func (r *BookingRepository) RedeemQuantity(ctx context.Context, bookingItemID int64, purpose string, amount int, now time.Time) (bool, error) {
	query := `
		UPDATE redemptions
		SET quantity_redeemed = quantity_redeemed + $1,
		    status = CASE WHEN quantity_redeemed + $1 = quantity THEN 'REDEEMED' ELSE status END,
		    redeemed_at = $2
		WHERE booking_item_id = $3 AND purpose = $4 AND status = 'PENDING'
		  AND quantity_redeemed + $1 <= quantity
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, amount, now, bookingItemID, purpose).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BookingRepository) ListRedemptions(ctx context.Context, bookingItemID int64) ([]models.Redemption, error) {
	var redemptions []models.Redemption
	query := `
		SELECT id, booking_item_id, purpose, status, quantity, quantity_redeemed, redeemed_at, created_at
		FROM redemptions
		WHERE booking_item_id = $1
		ORDER BY purpose`

	rows, err := r.db.QueryContext(ctx, query, bookingItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rd models.Redemption
		err := rows.Scan(&rd.ID, &rd.BookingItemID, &rd.Purpose, &rd.Status, &rd.Quantity,
			&rd.QuantityRedeemed, &rd.RedeemedAt, &rd.CreatedAt)
		if err != nil {
			return nil, err
		}
		redemptions = append(redemptions, rd)
	}

	return redemptions, rows.Err()
}

// ExpirePendingRedemptions marks redemptions of ended slots as expired.
// Returns the number of rows transitioned.
func (r *BookingRepository) ExpirePendingRedemptions(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE redemptions
		SET status = 'EXPIRED'
		WHERE status = 'PENDING'
		  AND booking_item_id IN (
			SELECT bi.id
			FROM booking_items bi
			JOIN bookings b ON b.id = bi.booking_id
			JOIN event_slots s ON s.id = b.slot_id
			WHERE s.ends_at <= $1 AND b.status = 'CONFIRMED'
		  )`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
