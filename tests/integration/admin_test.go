package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"tiketku/internal/models"
)

// TestAdmin_PayoutCalculation triggers a payout run and lists the results.
func TestAdmin_PayoutCalculation(t *testing.T) {
	admin := NewAdminClient(t)

	resp := admin.makeRequest(t, "POST", "/api/admin/payouts/calculate", nil)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("POST /api/admin/payouts/calculate: expected 200, got %d", resp.StatusCode)
	}

	var outcome models.CalculatePayoutsResponse
	decodeBody(t, resp, &outcome)
	if outcome.SlotsFailed > 0 {
		t.Fatalf("Payout calculation failed for %d slots", outcome.SlotsFailed)
	}
	LogTestResult(t, "Payout run processed %d slots", outcome.SlotsProcessed)

	list := admin.makeRequest(t, "GET", "/api/admin/payouts", nil)
	defer list.Body.Close()

	if list.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/admin/payouts: expected 200, got %d", list.StatusCode)
	}

	var payouts []models.PayoutView
	if err := json.NewDecoder(list.Body).Decode(&payouts); err != nil {
		t.Fatalf("Failed to decode payouts: %v", err)
	}

	for _, p := range payouts {
		if p.GrossCents != p.CommissionCents+p.NetCents {
			t.Fatalf("Payout %d: gross %d != commission %d + net %d",
				p.PayoutID, p.GrossCents, p.CommissionCents, p.NetCents)
		}

		// Gross is the sum of the per-age-group lines, attendance aside
		var lineSum int64
		for _, line := range p.Breakdown {
			lineSum += line.GrossCents
			if line.Attended > line.Quantity {
				t.Fatalf("Payout %d: line %q attended %d exceeds quantity %d",
					p.PayoutID, line.AgeGroup, line.Attended, line.Quantity)
			}
		}
		if lineSum != p.GrossCents {
			t.Fatalf("Payout %d: breakdown sums to %d, gross is %d",
				p.PayoutID, lineSum, p.GrossCents)
		}
	}
}

// TestAdmin_SurfaceRequiresAdminRole verifies the role gate.
func TestAdmin_SurfaceRequiresAdminRole(t *testing.T) {
	customer := NewCustomerClient(t)

	resp := customer.makeRequest(t, "GET", "/api/admin/payouts", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("Expected 403 for customer on admin surface, got %d", resp.StatusCode)
	}
}

// TestAdmin_WalletReconciliationClean verifies the ledger matches the
// cached balances after the other flows have run.
func TestAdmin_WalletReconciliationClean(t *testing.T) {
	admin := NewAdminClient(t)

	resp := admin.makeRequest(t, "POST", "/api/admin/wallets/reconcile", nil)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("POST /api/admin/wallets/reconcile: expected 200, got %d", resp.StatusCode)
	}

	var results []models.ReconcileResponse
	decodeBody(t, resp, &results)

	for _, r := range results {
		if !r.Consistent {
			t.Fatalf("Wallet %d inconsistent: cached free=%d paid=%d, ledger free=%d paid=%d",
				r.WalletID, r.CachedFree, r.CachedPaid, r.LedgerFree, r.LedgerPaid)
		}
	}

	LogTestResult(t, "All %d wallets reconcile cleanly", len(results))
}
