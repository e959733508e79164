package settings

import (
	"context"
	"strconv"
)

// Well-known setting keys. Values in the settings table override the
// environment-sourced defaults.
const (
	KeyCancellationPolicyHours = "cancellation_policy_hours"
	KeyCommissionPct           = "commission_percentage"
	KeyPayoutHoldHours         = "payout_hold_hours"
	KeyRegistrationBonusFree   = "registration_bonus_free_credits"
	KeyReferralBonusFree       = "referral_bonus_free_credits"
	KeyReferralThreshold       = "referral_threshold"
	KeyBonusValidityDays       = "bonus_validity_days"
)

// Defaults carries the fallback values used when a key is absent from
// the settings table.
type Defaults struct {
	CancellationPolicyHours int
	CommissionPct           float64
	PayoutHoldHours         int
	RegistrationBonusFree   int64
	ReferralBonusFree       int64
	ReferralThreshold       int
	BonusValidityDays       int
}

// Reader fetches one raw setting value.
type Reader interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
}

// Store resolves typed settings, preferring the database row over the
// configured default. Lookup errors fall back to the default rather
// than failing the business operation.
type Store struct {
	reader   Reader
	defaults Defaults
}

func NewStore(reader Reader, defaults Defaults) *Store {
	return &Store{reader: reader, defaults: defaults}
}

func (s *Store) intValue(ctx context.Context, key string, fallback int) int {
	raw, found, err := s.reader.Get(ctx, key)
	if err != nil || !found {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}

func (s *Store) floatValue(ctx context.Context, key string, fallback float64) float64 {
	raw, found, err := s.reader.Get(ctx, key)
	if err != nil || !found {
		return fallback
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return fallback
}

func (s *Store) CancellationPolicyHours(ctx context.Context) int {
	return s.intValue(ctx, KeyCancellationPolicyHours, s.defaults.CancellationPolicyHours)
}

func (s *Store) CommissionPct(ctx context.Context) float64 {
	return s.floatValue(ctx, KeyCommissionPct, s.defaults.CommissionPct)
}

func (s *Store) PayoutHoldHours(ctx context.Context) int {
	return s.intValue(ctx, KeyPayoutHoldHours, s.defaults.PayoutHoldHours)
}

func (s *Store) RegistrationBonusFree(ctx context.Context) int64 {
	return int64(s.intValue(ctx, KeyRegistrationBonusFree, int(s.defaults.RegistrationBonusFree)))
}

func (s *Store) ReferralBonusFree(ctx context.Context) int64 {
	return int64(s.intValue(ctx, KeyReferralBonusFree, int(s.defaults.ReferralBonusFree)))
}

func (s *Store) ReferralThreshold(ctx context.Context) int {
	return s.intValue(ctx, KeyReferralThreshold, s.defaults.ReferralThreshold)
}

func (s *Store) BonusValidityDays(ctx context.Context) int {
	return s.intValue(ctx, KeyBonusValidityDays, s.defaults.BonusValidityDays)
}
