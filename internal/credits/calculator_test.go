package credits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiketku/internal/apperrors"
	"tiketku/internal/models"
)

func conv(creditsPerRM, paidPct, freePct float64, ratio int64) *models.Conversion {
	return &models.Conversion{
		RMUnit:          1,
		CreditsPerRM:    creditsPerRM,
		PaidCreditPct:   paidPct,
		FreeCreditPct:   freePct,
		PaidToFreeRatio: ratio,
	}
}

func TestCalculate(t *testing.T) {
	// RM1 at 10 credits/RM, 70/30 split
	b := Calculate(100, conv(10, 70, 30, 3))
	assert.Equal(t, int64(10), b.PaidCredits)
	assert.Equal(t, int64(5), b.FreeCredits) // ceil(10/70*30) = ceil(4.29)
}

func TestCalculateRoundsUpAtEachStage(t *testing.T) {
	// RM1.50 at 7 credits/RM -> ceil(10.5) = 11 paid
	b := Calculate(150, conv(7, 70, 30, 3))
	assert.Equal(t, int64(11), b.PaidCredits)
	assert.Equal(t, int64(5), b.FreeCredits) // ceil(11/70*30) = ceil(4.71)
}

func TestCalculateZeroPrice(t *testing.T) {
	b := Calculate(0, conv(10, 70, 30, 3))
	assert.Zero(t, b.PaidCredits)
	assert.Zero(t, b.FreeCredits)
}

func TestCalculateRMUnit(t *testing.T) {
	// 10 credits per RM2 unit: RM4 -> 20 paid
	c := conv(10, 100, 0, 1)
	c.RMUnit = 2
	b := Calculate(400, c)
	assert.Equal(t, int64(20), b.PaidCredits)
	assert.Zero(t, b.FreeCredits)
}

func TestPlanDebitCoveredByFree(t *testing.T) {
	plan, err := PlanDebit(10, 50, 5, 2, 3, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), plan.DebitFree)
	assert.Equal(t, int64(2), plan.DebitPaid)
	assert.Zero(t, plan.ShortfallFree)
	assert.Zero(t, plan.FallbackPaid)
}

func TestPlanDebitShortfallWithoutFallback(t *testing.T) {
	// wallet free=2 paid=50, needs free=5, ratio=3
	_, err := PlanDebit(2, 50, 5, 0, 3, false)
	require.Error(t, err)

	var shortErr *apperrors.InsufficientFreeCreditsError
	require.True(t, errors.As(err, &shortErr))
	assert.Equal(t, int64(3), shortErr.ShortfallFree)
	assert.Equal(t, int64(3), shortErr.PaidToFreeRatio)
}

func TestPlanDebitShortfallWithFallback(t *testing.T) {
	plan, err := PlanDebit(2, 50, 5, 0, 3, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), plan.DebitFree)
	assert.Equal(t, int64(9), plan.DebitPaid) // 3 short * ratio 3
	assert.Equal(t, int64(3), plan.ShortfallFree)
	assert.Equal(t, int64(9), plan.FallbackPaid)
}

func TestPlanDebitFallbackStillInsufficient(t *testing.T) {
	_, err := PlanDebit(2, 8, 5, 0, 3, true)
	require.Error(t, err)

	var insufErr *apperrors.InsufficientCreditsError
	require.True(t, errors.As(err, &insufErr))
	assert.Equal(t, int64(9), insufErr.NeededPaid)
	assert.Equal(t, int64(8), insufErr.HavePaid)
}

func TestPlanDebitPaidShortWithoutShortfall(t *testing.T) {
	_, err := PlanDebit(10, 1, 5, 2, 3, false)
	var insufErr *apperrors.InsufficientCreditsError
	require.True(t, errors.As(err, &insufErr))
}
