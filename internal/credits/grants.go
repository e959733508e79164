package credits

import (
	"sort"
	"time"

	"tiketku/internal/models"
)

// GrantDraw is the amount a single grant loses when a debit is applied.
type GrantDraw struct {
	GrantID int64
	Free    int64
	Paid    int64
}

// ConsumeGrants distributes a debit across the wallet's grants,
// nearest-expiry-first so the least durable credits are spent before
// they can be forfeited. Grants without an expiry sort last; ties break
// on grant ID. Pure over the grant slice; persistence applies the
// returned draws. Amounts the grants cannot cover are left to the
// wallet cache check upstream.
func ConsumeGrants(grants []models.CreditGrant, debitFree, debitPaid int64) []GrantDraw {
	ordered := make([]models.CreditGrant, len(grants))
	copy(ordered, grants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return grantBefore(&ordered[i], &ordered[j])
	})

	var draws []GrantDraw
	for i := range ordered {
		if debitFree == 0 && debitPaid == 0 {
			break
		}
		g := &ordered[i]

		draw := GrantDraw{GrantID: g.ID}
		if debitFree > 0 && g.FreeRemaining > 0 {
			draw.Free = min64(debitFree, g.FreeRemaining)
			debitFree -= draw.Free
		}
		if debitPaid > 0 && g.PaidRemaining > 0 {
			draw.Paid = min64(debitPaid, g.PaidRemaining)
			debitPaid -= draw.Paid
		}

		if draw.Free > 0 || draw.Paid > 0 {
			draws = append(draws, draw)
		}
	}

	return draws
}

func grantBefore(a, b *models.CreditGrant) bool {
	switch {
	case a.ExpiresAt == nil && b.ExpiresAt == nil:
		return a.ID < b.ID
	case a.ExpiresAt == nil:
		return false
	case b.ExpiresAt == nil:
		return true
	case a.ExpiresAt.Equal(*b.ExpiresAt):
		return a.ID < b.ID
	default:
		return a.ExpiresAt.Before(*b.ExpiresAt)
	}
}

// Expired reports whether a grant is due for the expiry sweep at now.
func Expired(g *models.CreditGrant, now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now) &&
		(g.FreeRemaining > 0 || g.PaidRemaining > 0)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
