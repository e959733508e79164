package integration

import (
	"testing"

	"tiketku/internal/models"
)

// findGeneralPricedSlot returns a slot carrying an all-ages price row
// (nil age group), or nil when the event prices per age group.
func findGeneralPricedSlot(slots []models.ListSlotsResponseItem) *models.ListSlotsResponseItem {
	for i, slot := range slots {
		for _, price := range slot.Prices {
			if price.AgeGroupID == nil {
				return &slots[i]
			}
		}
	}
	return nil
}

// TestMerchant_GeneralPriceUpsertKeepsSingleRow re-submits a slot's
// all-ages price and checks the slot still exposes exactly one general
// price row afterwards.
func TestMerchant_GeneralPriceUpsertKeepsSingleRow(t *testing.T) {
	merchant := NewMerchantClient(t)
	customer := NewCustomerClient(t)

	slots := customer.ListSlots(t, eventIDUnderTest())
	slot := findGeneralPricedSlot(slots)
	if slot == nil {
		t.Skip("Event under test has no all-ages priced slot")
	}

	var current models.SlotPrice
	for _, price := range slot.Prices {
		if price.AgeGroupID == nil {
			current = price
			break
		}
	}

	req := models.SetSlotPriceRequest{
		AgeGroupID:  nil,
		PriceCents:  current.PriceCents,
		PaidCredits: current.PaidCredits,
		FreeCredits: current.FreeCredits,
	}

	LogTestStep(t, "Re-submitting the general price for slot %d twice", slot.ID)
	for i := 0; i < 2; i++ {
		price, errResp := merchant.SetSlotPrice(t, slot.ID, req)
		if errResp != nil {
			defer errResp.Body.Close()
			t.Fatalf("PUT slot price attempt %d: got %d", i+1, errResp.StatusCode)
		}
		if price.AgeGroupID != nil {
			t.Fatalf("Expected a general price row, got age group %d", *price.AgeGroupID)
		}
	}

	refreshed := customer.ListSlots(t, eventIDUnderTest())
	for _, s := range refreshed {
		if s.ID != slot.ID {
			continue
		}
		general := 0
		for _, price := range s.Prices {
			if price.AgeGroupID == nil {
				general++
			}
		}
		if general != 1 {
			t.Fatalf("Expected exactly one general price row, got %d", general)
		}
	}

	LogTestResult(t, "General price upsert kept a single row")
}
