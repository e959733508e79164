package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tiketku/internal/models"
)

func conversionAt(id int64, status string, from time.Time, until *time.Time) models.Conversion {
	return models.Conversion{
		ID:            id,
		Status:        status,
		EffectiveFrom: from,
		ValidUntil:    until,
	}
}

func TestFindOverlapRejectsDuplicateStart(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	existing := []models.Conversion{
		conversionAt(1, models.ConversionScheduled, from, nil),
	}

	conflict := findOverlap(existing, from, nil)
	assert.NotNil(t, conflict)
	assert.Equal(t, int64(1), conflict.ID)
}

func TestFindOverlapRejectsStartInsideBoundedWindow(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 1, 0)
	existing := []models.Conversion{
		conversionAt(1, models.ConversionActive, from, &until),
	}

	conflict := findOverlap(existing, from.AddDate(0, 0, 10), nil)
	assert.NotNil(t, conflict)
}

func TestFindOverlapRejectsExistingStartInsideNewWindow(t *testing.T) {
	scheduled := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	existing := []models.Conversion{
		conversionAt(1, models.ConversionScheduled, scheduled, nil),
	}

	from := scheduled.AddDate(0, 0, -10)
	until := scheduled.AddDate(0, 0, 10)
	conflict := findOverlap(existing, from, &until)
	assert.NotNil(t, conflict)
}

func TestFindOverlapIgnoresInactiveRows(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 1, 0)
	existing := []models.Conversion{
		conversionAt(1, models.ConversionInactive, from, &until),
	}

	assert.Nil(t, findOverlap(existing, from, nil))
	assert.Nil(t, findOverlap(existing, from.AddDate(0, 0, 10), nil))
}

func TestFindOverlapAllowsOpenEndedSuccession(t *testing.T) {
	// An open-ended active rate ends when the next one takes over, so
	// scheduling a later rate is not an overlap.
	activeFrom := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	existing := []models.Conversion{
		conversionAt(1, models.ConversionActive, activeFrom, nil),
	}

	assert.Nil(t, findOverlap(existing, activeFrom.AddDate(0, 1, 0), nil))
}

func TestActivationStampKeepsPastScheduledTime(t *testing.T) {
	scheduled := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	now := scheduled.Add(45 * time.Minute)

	// A sweep tick after the scheduled moment must not shift the
	// historical rate boundary to the tick time.
	assert.Equal(t, scheduled, activationStamp(scheduled, now))
}

func TestActivationStampUsesNowForEarlyPromotion(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	scheduled := now.Add(2 * time.Hour)

	assert.Equal(t, now, activationStamp(scheduled, now))
}
