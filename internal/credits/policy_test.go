package credits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefundEligible(t *testing.T) {
	now := time.Now()

	// 48h of notice against a 24h policy: refund
	assert.True(t, RefundEligible(now, now.Add(48*time.Hour), 24))

	// 1h of notice against a 24h policy: forfeit
	assert.False(t, RefundEligible(now, now.Add(time.Hour), 24))

	// after the slot started: forfeit
	assert.False(t, RefundEligible(now, now.Add(-time.Hour), 24))

	// exactly on the deadline counts as inside the window
	assert.False(t, RefundEligible(now, now.Add(24*time.Hour), 24))
}

func TestRedeemAmountPartial(t *testing.T) {
	// 2 of 3 attendees show up first, the last one later
	amount, err := RedeemAmount(3, 0, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, amount)

	amount, err = RedeemAmount(3, 2, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, amount)
}

func TestRedeemAmountDefaultsToRemaining(t *testing.T) {
	amount, err := RedeemAmount(3, 1, 0)
	assert.NoError(t, err)
	assert.Equal(t, 2, amount)
}

func TestRedeemAmountRejectsOverRedeem(t *testing.T) {
	_, err := RedeemAmount(3, 2, 2)
	assert.Error(t, err)
}

func TestRedeemAmountRejectsExhausted(t *testing.T) {
	_, err := RedeemAmount(3, 3, 0)
	assert.Error(t, err)
}

func TestRedeemAmountRejectsNegative(t *testing.T) {
	_, err := RedeemAmount(3, 0, -1)
	assert.Error(t, err)
}

func TestCommission(t *testing.T) {
	commission, net := Commission(10000, 15)
	assert.Equal(t, int64(1500), commission)
	assert.Equal(t, int64(8500), net)
}

func TestCommissionRoundsUp(t *testing.T) {
	commission, net := Commission(1001, 10) // 100.1 -> 101
	assert.Equal(t, int64(101), commission)
	assert.Equal(t, int64(900), net)
	assert.Equal(t, int64(1001), commission+net)
}

func TestCommissionZeroPct(t *testing.T) {
	commission, net := Commission(5000, 0)
	assert.Zero(t, commission)
	assert.Equal(t, int64(5000), net)
}
