package integration

import (
	"fmt"
	"testing"
	"time"

	"tiketku/internal/models"
)

// TestWallet_BalancesVisible verifies the wallet surface is reachable
// and internally consistent with the transaction history endpoint.
func TestWallet_BalancesVisible(t *testing.T) {
	client := NewCustomerClient(t)

	client.HealthCheck(t)

	wallet := client.GetWallet(t)
	if wallet.WalletID == 0 {
		t.Fatal("Expected a wallet to be auto-provisioned")
	}
	if wallet.FreeCredits < 0 || wallet.PaidCredits < 0 {
		t.Fatalf("Negative balances: free=%d paid=%d", wallet.FreeCredits, wallet.PaidCredits)
	}

	LogTestResult(t, "Wallet %d: free=%d paid=%d", wallet.WalletID, wallet.FreeCredits, wallet.PaidCredits)
}

// TestWallet_PackagePurchaseFlow runs a purchase through initiation and
// the gateway webhook, then checks the credits landed.
func TestWallet_PackagePurchaseFlow(t *testing.T) {
	client := NewCustomerClient(t)

	packages := client.ListPackages(t)
	if len(packages) == 0 {
		t.Skip("No active packages seeded")
	}
	pkg := packages[0]

	before := client.GetWallet(t)

	LogTestStep(t, "Purchasing package %d (%s)", pkg.ID, pkg.Name)
	purchase := client.PurchasePackage(t, pkg.ID)
	if purchase.OrderID == "" {
		t.Fatal("Expected a non-empty order ID")
	}
	if purchase.PaymentURL == "" {
		t.Fatal("Expected a gateway payment URL")
	}

	LogTestStep(t, "Delivering success webhook for order %s", purchase.OrderID)
	client.SendPaymentWebhook(t, models.PaymentNotificationPayload{
		PaymentID: "test-payment",
		OrderID:   purchase.OrderID,
		Status:    "completed",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	after := client.GetWallet(t)
	if after.PaidCredits != before.PaidCredits+pkg.PaidCredits {
		t.Fatalf("Paid credits: expected %d, got %d",
			before.PaidCredits+pkg.PaidCredits, after.PaidCredits)
	}
	if after.FreeCredits != before.FreeCredits+pkg.FreeCredits {
		t.Fatalf("Free credits: expected %d, got %d",
			before.FreeCredits+pkg.FreeCredits, after.FreeCredits)
	}

	LogTestStep(t, "Replaying the webhook to confirm idempotence")
	client.SendPaymentWebhook(t, models.PaymentNotificationPayload{
		PaymentID: "test-payment",
		OrderID:   purchase.OrderID,
		Status:    "completed",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	replayed := client.GetWallet(t)
	if replayed.PaidCredits != after.PaidCredits || replayed.FreeCredits != after.FreeCredits {
		t.Fatalf("Webhook replay changed balances: free %d->%d paid %d->%d",
			after.FreeCredits, replayed.FreeCredits, after.PaidCredits, replayed.PaidCredits)
	}

	LogTestResult(t, "Package purchase credited exactly once")
}

// TestWallet_RecommendMatchesActiveConversion checks the advertised
// credit floor is positive and proportional to the price.
func TestWallet_RecommendMatchesActiveConversion(t *testing.T) {
	client := NewCustomerClient(t)

	small := client.RecommendCredits(t, 1000)
	large := client.RecommendCredits(t, 10000)

	if small.PaidCredits <= 0 {
		t.Fatalf("Expected positive paid credit floor, got %d", small.PaidCredits)
	}
	if large.PaidCredits < small.PaidCredits {
		t.Fatalf("Larger price yielded smaller floor: %d < %d", large.PaidCredits, small.PaidCredits)
	}
}

// TestWallet_FirstTouchGrantsRegistrationBonus registers a fresh
// account whose first authenticated call is a booking attempt, then
// checks the lazily provisioned wallet carries the registration grant.
func TestWallet_FirstTouchGrantsRegistrationBonus(t *testing.T) {
	url := baseURL(t)
	anon := NewTestClient(url, "", "")

	email := fmt.Sprintf("customer-%d@tiketku.my", time.Now().UnixNano())
	account := anon.Register(t, email, "customer123")
	if account.UserID == 0 {
		t.Fatal("Expected a user id from registration")
	}

	fresh := NewTestClient(url, email, "customer123")

	LogTestStep(t, "Booking as the first touch for %s", email)
	slots := fresh.ListSlots(t, eventIDUnderTest())
	if slot := FindBookableSlot(slots); slot != nil {
		if _, errResp := fresh.CreateBooking(t, slot.ID, quantitiesForSlot(slot, 1), true); errResp != nil {
			defer errResp.Body.Close()
			if errResp.StatusCode >= 500 {
				t.Fatalf("Booking attempt failed with %d", errResp.StatusCode)
			}
		}
	}

	grants := fresh.ListGrants(t)
	var bonus *models.CreditGrant
	for i := range grants {
		if grants[i].GrantType == models.GrantRegistration {
			bonus = &grants[i]
			break
		}
	}
	if bonus == nil {
		t.Fatal("Expected a registration grant on the new wallet")
	}
	if bonus.FreeGranted <= 0 {
		t.Fatalf("Registration grant holds no credits: %+v", bonus)
	}

	LogTestResult(t, "Registration bonus of %d free credits granted", bonus.FreeGranted)
}
