package service

import (
	"context"
	"fmt"
	"time"

	"tiketku/internal/apperrors"
	"tiketku/internal/credits"
	"tiketku/internal/logger"
	"tiketku/internal/messaging"
	"tiketku/internal/metrics"
	"tiketku/internal/models"
	"tiketku/internal/repository"
	"tiketku/internal/settings"
)

type PayoutService struct {
	payoutRepo *repository.PayoutRepository
	slotRepo   *repository.SlotRepository
	natsClient *messaging.NATSClient
	settings   *settings.Store
}

func NewPayoutService(
	payoutRepo *repository.PayoutRepository,
	slotRepo *repository.SlotRepository,
	natsClient *messaging.NATSClient,
	store *settings.Store,
) *PayoutService {
	return &PayoutService{
		payoutRepo: payoutRepo,
		slotRepo:   slotRepo,
		natsClient: natsClient,
		settings:   store,
	}
}

// grossOf sums booked revenue across the per-age-group lines. Gross
// covers every confirmed booking item: no-shows already paid, so
// attendance never changes what the merchant is owed.
func grossOf(lines []models.PayoutLine) int64 {
	var gross int64
	for _, line := range lines {
		gross += line.GrossCents
	}
	return gross
}

// CalculateEligible aggregates one payout row per ended slot that has
// confirmed bookings and no payout yet. Slots are processed in
// isolation: one failure is counted and skipped, never aborting the
// batch. The unique constraint on (merchant, slot) makes re-runs no-ops.
func (s *PayoutService) CalculateEligible(ctx context.Context, now time.Time) (*models.CalculatePayoutsResponse, error) {
	slotIDs, err := s.payoutRepo.ListEligibleSlots(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible slots: %w", err)
	}

	commissionPct := s.settings.CommissionPct(ctx)
	holdHours := s.settings.PayoutHoldHours(ctx)

	resp := &models.CalculatePayoutsResponse{}
	for _, slotID := range slotIDs {
		if err := s.calculateSlot(ctx, slotID, commissionPct, holdHours, now); err != nil {
			logger.WithContext(ctx).Error("Failed to calculate payout for slot",
				"error", err,
				"slot_id", slotID)
			metrics.PayoutCalculationFailures.Inc()
			resp.SlotsFailed++
			continue
		}
		resp.SlotsProcessed++
	}

	return resp, nil
}

func (s *PayoutService) calculateSlot(ctx context.Context, slotID int64, commissionPct float64, holdHours int, now time.Time) error {
	lines, merchantID, err := s.payoutRepo.SlotBreakdown(ctx, slotID)
	if err != nil {
		return fmt.Errorf("failed to sum slot revenue: %w", err)
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("failed to get slot: %w", err)
	}
	if slot == nil {
		return apperrors.NewInvariant("payout candidate slot %d missing", slotID)
	}

	gross := grossOf(lines)
	commission, net := credits.Commission(gross, commissionPct)
	payout := &models.MerchantSlotPayout{
		MerchantID:      merchantID,
		SlotID:          slotID,
		GrossCents:      gross,
		CommissionCents: commission,
		NetCents:        net,
		Breakdown:       lines,
		Status:          models.PayoutPending,
		AvailableAt:     slot.EndsAt.Add(time.Duration(holdHours) * time.Hour),
		CalculatedAt:    now,
	}

	created, err := s.payoutRepo.Create(ctx, payout)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}
	if !created {
		return nil
	}

	metrics.PayoutsCalculated.Inc()

	event := models.PayoutCalculatedEvent{
		PayoutID:   payout.ID,
		MerchantID: merchantID,
		SlotID:     slotID,
		NetCents:   net,
		Timestamp:  now,
	}
	if err := s.natsClient.Publish(models.EventPayoutCalculated, event); err != nil {
		// Log error but don't fail the operation
		logger.WithContext(ctx).Error("Failed to publish payout calculated event",
			"error", err,
			"payout_id", payout.ID,
			"event_type", models.EventPayoutCalculated)
	}

	return nil
}

func (s *PayoutService) ListAll(ctx context.Context) ([]models.PayoutView, error) {
	views, err := s.payoutRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	return views, nil
}

func (s *PayoutService) ListForMerchant(ctx context.Context, merchantID int64) ([]models.PayoutView, error) {
	views, err := s.payoutRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list merchant payouts: %w", err)
	}
	return views, nil
}

// Request moves a merchant's pending payouts to REQUESTED, honoring the
// hold period. Rows still on hold are skipped.
func (s *PayoutService) Request(ctx context.Context, merchantID int64, req *models.RequestPayoutRequest) (int64, error) {
	if len(req.PayoutIDs) == 0 {
		return 0, apperrors.NewValidation("payout_ids must not be empty")
	}

	moved, err := s.payoutRepo.MarkRequested(ctx, merchantID, req.PayoutIDs, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to request payouts: %w", err)
	}

	return moved, nil
}

// MarkAsPaid stamps payouts PAID after the admin settles them out of band.
func (s *PayoutService) MarkAsPaid(ctx context.Context, req *models.MarkPayoutsPaidRequest) (int64, error) {
	if len(req.PayoutIDs) == 0 {
		return 0, apperrors.NewValidation("payout_ids must not be empty")
	}

	now := time.Now()
	paid, err := s.payoutRepo.MarkPaid(ctx, req.PayoutIDs, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payouts paid: %w", err)
	}

	if paid > 0 {
		event := models.PayoutPaidEvent{
			PayoutIDs: req.PayoutIDs,
			Timestamp: now,
		}
		if err := s.natsClient.Publish(models.EventPayoutPaid, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish payout paid event",
				"error", err,
				"event_type", models.EventPayoutPaid)
		}
	}

	return paid, nil
}
