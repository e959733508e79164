package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tiketku/internal/credits"
	"tiketku/internal/models"
)

func TestGrossCountsAllConfirmedLines(t *testing.T) {
	kids := int64(3)
	lines := []models.PayoutLine{
		{AgeGroupID: nil, AgeGroup: "General", Quantity: 4, Attended: 4, GrossCents: 20000},
		{AgeGroupID: &kids, AgeGroup: "Kids", Quantity: 2, Attended: 0, GrossCents: 6000},
	}

	// The no-show line still counts: the customer paid when booking
	assert.Equal(t, int64(26000), grossOf(lines))
}

func TestGrossOfNoBookings(t *testing.T) {
	assert.Zero(t, grossOf(nil))
	assert.Zero(t, grossOf([]models.PayoutLine{}))
}

func TestGrossCommissionNetIdentity(t *testing.T) {
	lines := []models.PayoutLine{
		{AgeGroup: "General", Quantity: 3, Attended: 1, GrossCents: 10001},
	}

	gross := grossOf(lines)
	commission, net := credits.Commission(gross, 15)
	assert.Equal(t, gross, commission+net)
}
