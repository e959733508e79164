package credits

import (
	"math"
	"time"

	"tiketku/internal/apperrors"
)

// RefundEligible reports whether a cancellation at now, for a slot
// starting at slotStart, falls outside the forfeiture window of
// policyHours. Cancelling with at least policyHours of notice refunds
// the credits; anything closer (or after the start) forfeits them.
func RefundEligible(now, slotStart time.Time, policyHours int) bool {
	deadline := slotStart.Add(-time.Duration(policyHours) * time.Hour)
	return now.Before(deadline)
}

// RedeemAmount resolves how many units of a redemption to mark redeemed.
// A requested amount of 0 means everything still pending. Redemptions
// are counted per unit, so a 3-person item can be redeemed 2-then-1.
func RedeemAmount(quantity, redeemed, requested int) (int, error) {
	remaining := quantity - redeemed
	if remaining <= 0 {
		return 0, apperrors.NewValidation("nothing left to redeem")
	}
	if requested == 0 {
		return remaining, nil
	}
	if requested < 0 {
		return 0, apperrors.NewValidation("quantity must not be negative")
	}
	if requested > remaining {
		return 0, apperrors.NewValidation("cannot redeem %d of %d remaining", requested, remaining)
	}
	return requested, nil
}

// Commission splits a gross RM amount (in cents) into the platform
// commission and the merchant's net. The commission rounds up, so the
// merchant's net rounds down and the sum identity stays exact.
func Commission(grossCents int64, pct float64) (commission, net int64) {
	if grossCents <= 0 || pct <= 0 {
		return 0, grossCents
	}
	commission = int64(math.Ceil(float64(grossCents) * pct / 100.0))
	if commission > grossCents {
		commission = grossCents
	}
	return commission, grossCents - commission
}
