package credits

import (
	"math"

	"tiketku/internal/apperrors"
	"tiketku/internal/models"
)

// Breakdown is the paid/free credit cost computed for an RM price.
type Breakdown struct {
	PaidCredits int64
	FreeCredits int64
}

// Calculate converts an RM price (in cents) into its credit breakdown
// under the given conversion. Rounding is up at each stage so the
// platform never under-credits, and so merchant-configured slot prices
// have a hard paid-credit floor.
func Calculate(priceCents int64, conv *models.Conversion) Breakdown {
	if priceCents <= 0 {
		return Breakdown{}
	}

	rmUnit := conv.RMUnit
	if rmUnit <= 0 {
		rmUnit = 1
	}

	priceRM := float64(priceCents) / 100.0
	paid := int64(math.Ceil(priceRM / rmUnit * conv.CreditsPerRM))

	var free int64
	if conv.PaidCreditPct > 0 {
		free = int64(math.Ceil(float64(paid) / conv.PaidCreditPct * conv.FreeCreditPct))
	}

	return Breakdown{PaidCredits: paid, FreeCredits: free}
}

// DebitPlan describes how a required free/paid amount is covered by the
// wallet, including any paid-credit fallback applied to a free shortfall.
type DebitPlan struct {
	DebitFree int64 // free credits consumed
	DebitPaid int64 // paid credits consumed, fallback included

	ShortfallFree int64 // free credits the wallet was short
	FallbackPaid  int64 // paid credits substituted for the shortfall
}

// PlanDebit applies the paid-credit fallback rule. A free-credit shortfall
// converts to paid credits at paidToFreeRatio paid per free (the product is
// exact since both operands are integers, which keeps fallback rounding
// consistent with the ceiling policy above). Without fallback permission a
// shortfall yields InsufficientFreeCreditsError carrying the offer; with
// it, a paid shortfall yields InsufficientCreditsError.
func PlanDebit(haveFree, havePaid, needFree, needPaid, paidToFreeRatio int64, allowFallback bool) (DebitPlan, error) {
	plan := DebitPlan{DebitFree: needFree, DebitPaid: needPaid}

	if haveFree < needFree {
		plan.ShortfallFree = needFree - haveFree
		if !allowFallback {
			return DebitPlan{}, &apperrors.InsufficientFreeCreditsError{
				ShortfallFree:   plan.ShortfallFree,
				PaidToFreeRatio: paidToFreeRatio,
			}
		}
		plan.FallbackPaid = plan.ShortfallFree * paidToFreeRatio
		plan.DebitFree = haveFree
		plan.DebitPaid = needPaid + plan.FallbackPaid
	}

	if havePaid < plan.DebitPaid {
		return DebitPlan{}, &apperrors.InsufficientCreditsError{
			NeededPaid: plan.DebitPaid,
			HavePaid:   havePaid,
		}
	}

	return plan, nil
}
