package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeReader struct {
	values map[string]string
	err    error
}

func (f *fakeReader) Get(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func testDefaults() Defaults {
	return Defaults{
		CancellationPolicyHours: 24,
		CommissionPct:           15.0,
		PayoutHoldHours:         72,
		RegistrationBonusFree:   10,
		ReferralBonusFree:       20,
		ReferralThreshold:       3,
		BonusValidityDays:       90,
	}
}

func TestStorePrefersDatabaseValues(t *testing.T) {
	store := NewStore(&fakeReader{values: map[string]string{
		KeyCancellationPolicyHours: "48",
		KeyCommissionPct:           "12.5",
		KeyRegistrationBonusFree:   "100",
	}}, testDefaults())

	ctx := context.Background()

	assert.Equal(t, 48, store.CancellationPolicyHours(ctx))
	assert.Equal(t, 12.5, store.CommissionPct(ctx))
	assert.Equal(t, int64(100), store.RegistrationBonusFree(ctx))
}

func TestStoreFallsBackToDefaults(t *testing.T) {
	store := NewStore(&fakeReader{values: map[string]string{}}, testDefaults())

	ctx := context.Background()

	assert.Equal(t, 24, store.CancellationPolicyHours(ctx))
	assert.Equal(t, 15.0, store.CommissionPct(ctx))
	assert.Equal(t, 72, store.PayoutHoldHours(ctx))
	assert.Equal(t, int64(20), store.ReferralBonusFree(ctx))
	assert.Equal(t, 3, store.ReferralThreshold(ctx))
	assert.Equal(t, 90, store.BonusValidityDays(ctx))
}

func TestStoreIgnoresMalformedValues(t *testing.T) {
	store := NewStore(&fakeReader{values: map[string]string{
		KeyPayoutHoldHours: "not-a-number",
		KeyCommissionPct:   "",
	}}, testDefaults())

	ctx := context.Background()

	assert.Equal(t, 72, store.PayoutHoldHours(ctx))
	assert.Equal(t, 15.0, store.CommissionPct(ctx))
}

func TestStoreSurvivesReaderErrors(t *testing.T) {
	store := NewStore(&fakeReader{err: errors.New("connection refused")}, testDefaults())

	ctx := context.Background()

	assert.Equal(t, 24, store.CancellationPolicyHours(ctx))
	assert.Equal(t, int64(10), store.RegistrationBonusFree(ctx))
}
