package service

import (
	"context"
	"fmt"
	"time"

	"tiketku/internal/apperrors"
	"tiketku/internal/cache"
	"tiketku/internal/credits"
	"tiketku/internal/logger"
	"tiketku/internal/messaging"
	"tiketku/internal/metrics"
	"tiketku/internal/models"
	"tiketku/internal/repository"
)

type ConversionService struct {
	conversionRepo *repository.ConversionRepository
	valkey         *cache.ValkeyClient
	natsClient     *messaging.NATSClient
}

func NewConversionService(conversionRepo *repository.ConversionRepository, valkey *cache.ValkeyClient, natsClient *messaging.NATSClient) *ConversionService {
	return &ConversionService{
		conversionRepo: conversionRepo,
		valkey:         valkey,
		natsClient:     natsClient,
	}
}

// GetActive resolves the current conversion rate, cache first. Pricing
// and settlement both refuse to proceed without an active rate.
func (s *ConversionService) GetActive(ctx context.Context) (*models.Conversion, error) {
	if s.valkey != nil {
		cached, err := s.valkey.GetActiveConversion(ctx)
		if err != nil {
			logger.WithContext(ctx).Warn("Conversion cache lookup failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	conv, err := s.conversionRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active conversion: %w", err)
	}
	if conv == nil {
		return nil, apperrors.NewValidation("no active conversion rate configured")
	}

	if s.valkey != nil {
		if err := s.valkey.SetActiveConversion(ctx, conv); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache active conversion", "error", err)
		}
	}

	return conv, nil
}

func (s *ConversionService) Create(ctx context.Context, req *models.CreateConversionRequest) (*models.CreateConversionResponse, error) {
	if req.RMUnit <= 0 {
		return nil, apperrors.NewValidation("rm_unit must be positive")
	}
	if req.CreditsPerRM <= 0 {
		return nil, apperrors.NewValidation("credits_per_rm must be positive")
	}
	if req.PaidCreditPct <= 0 || req.FreeCreditPct < 0 {
		return nil, apperrors.NewValidation("credit percentages out of range")
	}
	if req.PaidCreditPct+req.FreeCreditPct != 100 {
		return nil, apperrors.NewValidation("paid and free credit percentages must sum to 100")
	}
	if req.PaidToFreeRatio < 1 {
		return nil, apperrors.NewValidation("paid_to_free_ratio must be at least 1")
	}

	effectiveFrom := time.Now()
	if req.EffectiveFrom != "" {
		parsed, err := time.Parse(time.RFC3339, req.EffectiveFrom)
		if err != nil {
			return nil, apperrors.NewValidation("effective_from must be RFC3339")
		}
		effectiveFrom = parsed
	}

	var validUntil *time.Time
	if req.ValidUntil != "" {
		parsed, err := time.Parse(time.RFC3339, req.ValidUntil)
		if err != nil {
			return nil, apperrors.NewValidation("valid_until must be RFC3339")
		}
		if !parsed.After(effectiveFrom) {
			return nil, apperrors.NewValidation("valid_until must be after effective_from")
		}
		validUntil = &parsed
	}

	existing, err := s.conversionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	if conflict := findOverlap(existing, effectiveFrom, validUntil); conflict != nil {
		return nil, apperrors.NewValidation("effective range overlaps conversion %d", conflict.ID)
	}

	conv := &models.Conversion{
		RMUnit:          req.RMUnit,
		CreditsPerRM:    req.CreditsPerRM,
		PaidCreditPct:   req.PaidCreditPct,
		FreeCreditPct:   req.FreeCreditPct,
		PaidToFreeRatio: req.PaidToFreeRatio,
		EffectiveFrom:   effectiveFrom,
		ValidUntil:      validUntil,
		Status:          models.ConversionScheduled,
	}

	if err := s.conversionRepo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversion: %w", err)
	}

	if req.ActivateNow {
		if _, err := s.Activate(ctx, conv.ID); err != nil {
			return nil, err
		}
	}

	return &models.CreateConversionResponse{ID: conv.ID}, nil
}

// findOverlap returns a non-inactive conversion whose effective range
// collides with [from, until). Open-ended rows end where the next rate
// takes over, so only duplicate start times and explicit valid_until
// windows can collide.
func findOverlap(existing []models.Conversion, from time.Time, until *time.Time) *models.Conversion {
	for i := range existing {
		c := &existing[i]
		if c.Status == models.ConversionInactive {
			continue
		}
		if c.EffectiveFrom.Equal(from) {
			return c
		}
		if c.ValidUntil != nil && from.After(c.EffectiveFrom) && from.Before(*c.ValidUntil) {
			return c
		}
		if until != nil && c.EffectiveFrom.After(from) && c.EffectiveFrom.Before(*until) {
			return c
		}
	}
	return nil
}

func (s *ConversionService) List(ctx context.Context) ([]models.Conversion, error) {
	conversions, err := s.conversionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	return conversions, nil
}

// Activate promotes one conversion to the single active slot and
// invalidates the cached rate. Admin activation takes effect now.
func (s *ConversionService) Activate(ctx context.Context, conversionID int64) (*models.Conversion, error) {
	now := time.Now()
	return s.activateAt(ctx, conversionID, now, now)
}

func (s *ConversionService) activateAt(ctx context.Context, conversionID int64, effectiveFrom, now time.Time) (*models.Conversion, error) {
	existing, err := s.conversionRepo.GetByID(ctx, conversionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}
	if existing == nil {
		return nil, &apperrors.NotFoundError{Entity: "conversion", ID: conversionID}
	}

	conv, err := s.conversionRepo.Activate(ctx, conversionID, effectiveFrom, now)
	if err != nil {
		return nil, err
	}

	if s.valkey != nil {
		if err := s.valkey.InvalidateActiveConversion(ctx); err != nil {
			logger.WithContext(ctx).Warn("Failed to invalidate conversion cache", "error", err)
		}
	}

	metrics.ConversionActivations.Inc()

	event := models.ConversionActivatedEvent{
		ConversionID: conv.ID,
		CreditsPerRM: conv.CreditsPerRM,
		Timestamp:    time.Now(),
	}
	if err := s.natsClient.Publish(models.EventConversionActivated, event); err != nil {
		// Log error but don't fail the operation
		logger.WithContext(ctx).Error("Failed to publish conversion activated event",
			"error", err,
			"conversion_id", conv.ID,
			"event_type", models.EventConversionActivated)
	}

	return conv, nil
}

// ApplyScheduledConversions activates any scheduled conversion whose
// effective time has arrived. Activations run in effective-from order,
// so when several are due the latest one ends up active.
func (s *ConversionService) ApplyScheduledConversions(ctx context.Context, now time.Time) (int, error) {
	due, err := s.conversionRepo.ListDueScheduled(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due conversions: %w", err)
	}

	activated := 0
	for _, conv := range due {
		if _, err := s.activateAt(ctx, conv.ID, activationStamp(conv.EffectiveFrom, now), now); err != nil {
			logger.WithContext(ctx).Error("Failed to activate scheduled conversion",
				"error", err,
				"conversion_id", conv.ID)
			continue
		}
		activated++
	}

	return activated, nil
}

// activationStamp picks the effective_from to record when a scheduled
// conversion is promoted: the scheduled time once it has passed, so the
// historical rate boundary stays where it was announced.
func activationStamp(scheduled, now time.Time) time.Time {
	if scheduled.Before(now) {
		return scheduled
	}
	return now
}

// RecommendCredits computes the credit floor for an RM price under the
// active conversion.
func (s *ConversionService) RecommendCredits(ctx context.Context, priceCents int64) (*models.CreditBreakdownResponse, error) {
	if priceCents <= 0 {
		return nil, apperrors.NewValidation("price_cents must be positive")
	}

	conv, err := s.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	breakdown := credits.Calculate(priceCents, conv)
	return &models.CreditBreakdownResponse{
		PriceCents:  priceCents,
		PaidCredits: breakdown.PaidCredits,
		FreeCredits: breakdown.FreeCredits,
	}, nil
}

// ValidateSlotPricing enforces the paid-credit floor on a merchant
// slot price.
func (s *ConversionService) ValidateSlotPricing(ctx context.Context, price *models.SlotPrice) error {
	conv, err := s.GetActive(ctx)
	if err != nil {
		return err
	}

	floor := credits.Calculate(price.PriceCents, conv)
	if price.PaidCredits < floor.PaidCredits {
		return apperrors.NewValidation(
			"paid_credits %d below floor %d for price %d cents",
			price.PaidCredits, floor.PaidCredits, price.PriceCents)
	}

	return nil
}
