package credits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiketku/internal/models"
)

func grant(id int64, free, paid int64, expires *time.Time) models.CreditGrant {
	return models.CreditGrant{
		ID:            id,
		FreeRemaining: free,
		PaidRemaining: paid,
		ExpiresAt:     expires,
	}
}

func TestConsumeGrantsNearestExpiryFirst(t *testing.T) {
	soon := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(30 * 24 * time.Hour)

	grants := []models.CreditGrant{
		grant(1, 10, 0, nil), // open-ended, consumed last
		grant(2, 10, 0, &later),
		grant(3, 10, 0, &soon),
	}

	draws := ConsumeGrants(grants, 15, 0)
	require.Len(t, draws, 2)
	assert.Equal(t, int64(3), draws[0].GrantID)
	assert.Equal(t, int64(10), draws[0].Free)
	assert.Equal(t, int64(2), draws[1].GrantID)
	assert.Equal(t, int64(5), draws[1].Free)
}

func TestConsumeGrantsPaidAndFree(t *testing.T) {
	soon := time.Now().Add(time.Hour)
	grants := []models.CreditGrant{
		grant(1, 5, 20, &soon),
		grant(2, 5, 20, nil),
	}

	draws := ConsumeGrants(grants, 8, 25)
	require.Len(t, draws, 2)
	assert.Equal(t, GrantDraw{GrantID: 1, Free: 5, Paid: 20}, draws[0])
	assert.Equal(t, GrantDraw{GrantID: 2, Free: 3, Paid: 5}, draws[1])
}

func TestConsumeGrantsTieBreaksOnID(t *testing.T) {
	at := time.Now().Add(time.Hour)
	grants := []models.CreditGrant{
		grant(7, 4, 0, &at),
		grant(3, 4, 0, &at),
	}

	draws := ConsumeGrants(grants, 6, 0)
	require.Len(t, draws, 2)
	assert.Equal(t, int64(3), draws[0].GrantID)
	assert.Equal(t, int64(7), draws[1].GrantID)
}

func TestConsumeGrantsDeterministic(t *testing.T) {
	soon := time.Now().Add(time.Hour)
	grants := []models.CreditGrant{
		grant(1, 3, 1, nil),
		grant(2, 3, 1, &soon),
	}

	first := ConsumeGrants(grants, 4, 2)
	second := ConsumeGrants(grants, 4, 2)
	assert.Equal(t, first, second)
	// input order untouched
	assert.Equal(t, int64(1), grants[0].ID)
}

func TestConsumeGrantsNothingNeeded(t *testing.T) {
	draws := ConsumeGrants([]models.CreditGrant{grant(1, 10, 10, nil)}, 0, 0)
	assert.Empty(t, draws)
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	g := grant(1, 20, 0, &past)
	assert.True(t, Expired(&g, now))

	g = grant(2, 20, 0, &future)
	assert.False(t, Expired(&g, now))

	// already drained grants are not due for the sweep
	g = grant(3, 0, 0, &past)
	assert.False(t, Expired(&g, now))

	g = grant(4, 20, 0, nil)
	assert.False(t, Expired(&g, now))
}
