package repository

import (
	"context"
	"database/sql"

	"tiketku/internal/database"
	"tiketku/internal/models"
)

type SlotRepository struct {
	db *database.DB
}

func NewSlotRepository(db *database.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*models.EventSlot, error) {
	slot := &models.EventSlot{}
	query := `
		SELECT id, event_id, capacity, booked_quantity, starts_at, ends_at, created_at, updated_at
		FROM event_slots
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&slot.ID,
		&slot.EventID,
		&slot.Capacity,
		&slot.BookedQuantity,
		&slot.StartsAt,
		&slot.EndsAt,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return slot, err
}

func (r *SlotRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.EventSlot, error) {
	var slots []models.EventSlot
	query := `
		SELECT id, event_id, capacity, booked_quantity, starts_at, ends_at, created_at, updated_at
		FROM event_slots
		WHERE event_id = $1
		ORDER BY starts_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var slot models.EventSlot
		err := rows.Scan(
			&slot.ID,
			&slot.EventID,
			&slot.Capacity,
			&slot.BookedQuantity,
			&slot.StartsAt,
			&slot.EndsAt,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

func (r *SlotRepository) GetPrices(ctx context.Context, slotID int64) ([]models.SlotPrice, error) {
	var prices []models.SlotPrice
	query := `
		SELECT id, slot_id, age_group_id, price_cents, paid_credits, free_credits
		FROM slot_prices
		WHERE slot_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.SlotPrice
		err := rows.Scan(&p.ID, &p.SlotID, &p.AgeGroupID, &p.PriceCents, &p.PaidCredits, &p.FreeCredits)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}

	return prices, rows.Err()
}

// SetPrice upserts one price row. General prices (nil age group) need
// their own conflict target: NULLs never collide under the composite
// unique constraint, only under the partial index on (slot_id).
func (r *SlotRepository) SetPrice(ctx context.Context, p *models.SlotPrice) error {
	query := `
		INSERT INTO slot_prices (slot_id, age_group_id, price_cents, paid_credits, free_credits)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slot_id, age_group_id)
		DO UPDATE SET price_cents = $3, paid_credits = $4, free_credits = $5
		RETURNING id`
	if p.AgeGroupID == nil {
		query = `
		INSERT INTO slot_prices (slot_id, age_group_id, price_cents, paid_credits, free_credits)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slot_id) WHERE age_group_id IS NULL
		DO UPDATE SET price_cents = $3, paid_credits = $4, free_credits = $5
		RETURNING id`
	}

	return r.db.QueryRowContext(ctx, query,
		p.SlotID, p.AgeGroupID, p.PriceCents, p.PaidCredits, p.FreeCredits,
	).Scan(&p.ID)
}

func (r *SlotRepository) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, merchant_id, title, status, all_ages, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&event.ID,
		&event.MerchantID,
		&event.Title,
		&event.Status,
		&event.AllAges,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *SlotRepository) ListAgeGroups(ctx context.Context, eventID int64) ([]models.AgeGroup, error) {
	var groups []models.AgeGroup
	query := `SELECT id, event_id, label FROM age_groups WHERE event_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var g models.AgeGroup
		if err := rows.Scan(&g.ID, &g.EventID, &g.Label); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}
