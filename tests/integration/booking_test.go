package integration

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"tiketku/internal/models"
)

func quantitiesForSlot(slot *models.ListSlotsResponseItem, count int) map[string]int {
	price := slot.Prices[0]
	key := "general"
	if price.AgeGroupID != nil {
		key = strconv.FormatInt(*price.AgeGroupID, 10)
	}
	return map[string]int{key: count}
}

func eventIDUnderTest() int64 {
	if v := envOr("TIKETKU_EVENT_ID", ""); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id
		}
	}
	return 1
}

// TestBooking_FullLifecycle books a slot, verifies the wallet debit and
// the booking listing, then cancels within the refund window.
func TestBooking_FullLifecycle(t *testing.T) {
	client := NewCustomerClient(t)

	LogTestStep(t, "Reading wallet balance before booking")
	before := client.GetWallet(t)

	slots := client.ListSlots(t, eventIDUnderTest())
	slot := findRefundableSlot(t, slots)
	if slot == nil {
		t.Skip("No bookable slot far enough from its start time")
	}

	LogTestStep(t, "Booking slot %d", slot.ID)
	booking, errResp := client.CreateBooking(t, slot.ID, quantitiesForSlot(slot, 1), true)
	if errResp != nil {
		defer errResp.Body.Close()
		if errResp.StatusCode == http.StatusUnprocessableEntity {
			t.Skip("Wallet has insufficient credits for the lifecycle test")
		}
		t.Fatalf("POST /api/bookings: unexpected status %d", errResp.StatusCode)
	}

	if booking.Status != "CONFIRMED" {
		t.Fatalf("Expected CONFIRMED booking, got %s", booking.Status)
	}
	if booking.FreeCredits+booking.PaidCredits <= 0 {
		t.Fatalf("Expected a positive credit charge, got free=%d paid=%d",
			booking.FreeCredits, booking.PaidCredits)
	}
	LogTestResult(t, "Booking %d confirmed, charged free=%d paid=%d",
		booking.ID, booking.FreeCredits, booking.PaidCredits)

	after := client.GetWallet(t)
	debited := (before.FreeCredits - after.FreeCredits) + (before.PaidCredits - after.PaidCredits)
	if debited != booking.FreeCredits+booking.PaidCredits {
		t.Fatalf("Wallet debit %d does not match charge %d",
			debited, booking.FreeCredits+booking.PaidCredits)
	}

	bookings := client.ListBookings(t)
	AssertBookingExists(t, bookings, booking.ID)

	LogTestStep(t, "Cancelling booking %d inside the refund window", booking.ID)
	outcome := client.CancelBooking(t, booking.ID)
	if outcome.Status != "REFUNDED" {
		t.Fatalf("Expected REFUNDED, got %s (%s)", outcome.Status, outcome.Message)
	}
	if outcome.RefundedFree != booking.FreeCredits || outcome.RefundedPaid != booking.PaidCredits {
		t.Fatalf("Refund free=%d paid=%d does not match charge free=%d paid=%d",
			outcome.RefundedFree, outcome.RefundedPaid, booking.FreeCredits, booking.PaidCredits)
	}

	restored := client.GetWallet(t)
	if restored.FreeCredits != before.FreeCredits || restored.PaidCredits != before.PaidCredits {
		t.Fatalf("Wallet not restored after refund: before free=%d paid=%d, after free=%d paid=%d",
			before.FreeCredits, before.PaidCredits, restored.FreeCredits, restored.PaidCredits)
	}

	LogTestResult(t, "Booking lifecycle completed with full refund")
}

// TestBooking_OtherCustomerCannotCancel verifies bookings are invisible
// across accounts.
func TestBooking_OtherCustomerCannotCancel(t *testing.T) {
	owner := NewCustomerClient(t)
	other := NewSecondCustomerClient(t)

	slots := owner.ListSlots(t, eventIDUnderTest())
	slot := findRefundableSlot(t, slots)
	if slot == nil {
		t.Skip("No bookable slot available")
	}

	booking, errResp := owner.CreateBooking(t, slot.ID, quantitiesForSlot(slot, 1), true)
	if errResp != nil {
		defer errResp.Body.Close()
		t.Skipf("Could not create booking (status %d)", errResp.StatusCode)
	}
	defer owner.CancelBooking(t, booking.ID)

	req := models.CancelBookingRequest{BookingID: booking.ID}
	resp := other.makeRequest(t, "PATCH", "/api/bookings/cancel", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 cancelling another customer's booking, got %d", resp.StatusCode)
	}

	LogTestResult(t, "Cross-account cancellation correctly rejected")
}

// TestBooking_RejectsZeroQuantities verifies request validation.
func TestBooking_RejectsZeroQuantities(t *testing.T) {
	client := NewCustomerClient(t)

	req := models.CreateBookingRequest{
		SlotID:     1,
		Quantities: map[string]int{},
	}

	resp := client.makeRequest(t, "POST", "/api/bookings", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 400 or 422 for empty quantities, got %d", resp.StatusCode)
	}
}

// findRefundableSlot picks a slot starting far enough in the future that
// an immediate cancellation falls inside the refund window.
func findRefundableSlot(t *testing.T, slots []models.ListSlotsResponseItem) *models.ListSlotsResponseItem {
	cutoff := time.Now().Add(48 * time.Hour)

	for i := range slots {
		slot := &slots[i]
		if len(slot.Prices) == 0 {
			continue
		}
		if slot.Capacity != nil && slot.BookedQuantity >= *slot.Capacity {
			continue
		}

		startsAt, err := time.Parse(time.RFC3339, slot.StartsAt)
		if err != nil {
			t.Fatalf("Slot %d has malformed starts_at %q: %v", slot.ID, slot.StartsAt, err)
		}
		if startsAt.After(cutoff) {
			return slot
		}
	}

	return nil
}
