package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tiketku/internal/apperrors"
	"tiketku/internal/credits"
	"tiketku/internal/external"
	"tiketku/internal/logger"
	"tiketku/internal/messaging"
	"tiketku/internal/metrics"
	"tiketku/internal/models"
	"tiketku/internal/repository"
	"tiketku/internal/settings"
)

type BookingService struct {
	bookingRepo *repository.BookingRepository
	slotRepo    *repository.SlotRepository
	wallets     *WalletService
	userRepo    *repository.UserRepository
	conversions *ConversionService
	natsClient  *messaging.NATSClient
	notifier    *external.NotifierClient
	settings    *settings.Store
}

func NewBookingService(
	bookingRepo *repository.BookingRepository,
	slotRepo *repository.SlotRepository,
	wallets *WalletService,
	userRepo *repository.UserRepository,
	conversions *ConversionService,
	natsClient *messaging.NATSClient,
	notifier *external.NotifierClient,
	store *settings.Store,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		wallets:     wallets,
		userRepo:    userRepo,
		conversions: conversions,
		natsClient:  natsClient,
		notifier:    notifier,
		settings:    store,
	}
}

// Book settles one booking: it resolves the slot's price list into cost
// snapshots, then hands capacity reservation and the wallet debit to the
// repository as a single transaction.
func (s *BookingService) Book(ctx context.Context, customerID int64, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	if len(req.Quantities) == 0 {
		return nil, apperrors.NewValidation("quantities must not be empty")
	}

	slot, err := s.slotRepo.GetByID(ctx, req.SlotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	if slot == nil {
		return nil, &apperrors.NotFoundError{Entity: "slot", ID: req.SlotID}
	}
	if !time.Now().Before(slot.StartsAt) {
		return nil, apperrors.NewValidation("slot %d has already started", slot.ID)
	}

	items, needFree, needPaid, err := s.buildItems(ctx, slot, req.Quantities)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversions.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	// Wallet provisioning always goes through the wallet service, so a
	// customer whose first touch is a booking still gets signup bonuses.
	wallet, err := s.wallets.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	booking, plan, err := s.bookingRepo.CreateSettled(ctx, repository.SettleParams{
		CustomerID:    customerID,
		WalletID:      wallet.ID,
		SlotID:        slot.ID,
		Items:         items,
		NeedFree:      needFree,
		NeedPaid:      needPaid,
		Ratio:         conv.PaidToFreeRatio,
		AllowFallback: req.AllowPaidFallback,
		Description:   fmt.Sprintf("Booking for slot %d", slot.ID),
	})
	if err != nil {
		var slotFull *apperrors.SlotFullError
		var shortFree *apperrors.InsufficientFreeCreditsError
		var shortCredits *apperrors.InsufficientCreditsError
		switch {
		case errors.As(err, &slotFull):
			metrics.BookingsRejected.WithLabelValues("slot_full").Inc()
		case errors.As(err, &shortFree):
			metrics.BookingsRejected.WithLabelValues("insufficient_free").Inc()
		case errors.As(err, &shortCredits):
			metrics.BookingsRejected.WithLabelValues("insufficient_credits").Inc()
		}
		return nil, err
	}

	metrics.BookingsConfirmed.Inc()
	metrics.CreditsDebited.WithLabelValues("free").Add(float64(plan.DebitFree))
	metrics.CreditsDebited.WithLabelValues("paid").Add(float64(plan.DebitPaid))

	event := models.BookingConfirmedEvent{
		BookingID:   booking.ID,
		SlotID:      booking.SlotID,
		CustomerID:  customerID,
		Quantity:    booking.Quantity,
		FreeCredits: plan.DebitFree,
		PaidCredits: plan.DebitPaid,
		Timestamp:   time.Now(),
	}
	if err := s.natsClient.Publish(models.EventBookingConfirmed, event); err != nil {
		// Log error but don't fail the operation
		logger.WithContext(ctx).Error("Failed to publish booking confirmed event",
			"error", err,
			"booking_id", booking.ID,
			"event_type", models.EventBookingConfirmed)
	}

	if err := s.notifier.Send(external.Notification{
		UserID:  customerID,
		Kind:    "booking_confirmed",
		Subject: "Booking confirmed",
		Body:    fmt.Sprintf("Your booking #%d for %s is confirmed.", booking.ID, slot.StartsAt.Format(time.RFC1123)),
	}); err != nil {
		logger.WithContext(ctx).Warn("Failed to send booking notification",
			"error", err,
			"booking_id", booking.ID)
	}

	return &models.CreateBookingResponse{
		ID:          booking.ID,
		Status:      booking.Status,
		FreeCredits: plan.DebitFree,
		PaidCredits: plan.DebitPaid,
	}, nil
}

// buildItems turns the requested quantities into cost snapshots against
// the slot's price list. Map keys are age group IDs, or "general" for
// all-ages events.
func (s *BookingService) buildItems(ctx context.Context, slot *models.EventSlot, quantities map[string]int) ([]models.BookingItem, int64, int64, error) {
	prices, err := s.slotRepo.GetPrices(ctx, slot.ID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to get slot prices: %w", err)
	}
	if len(prices) == 0 {
		return nil, 0, 0, apperrors.NewValidation("slot %d has no prices configured", slot.ID)
	}

	priceByGroup := make(map[string]models.SlotPrice, len(prices))
	for _, p := range prices {
		key := "general"
		if p.AgeGroupID != nil {
			key = strconv.FormatInt(*p.AgeGroupID, 10)
		}
		priceByGroup[key] = p
	}

	var items []models.BookingItem
	var needFree, needPaid int64
	for key, qty := range quantities {
		if qty <= 0 {
			return nil, 0, 0, apperrors.NewValidation("quantity for %q must be positive", key)
		}
		price, ok := priceByGroup[key]
		if !ok {
			return nil, 0, 0, apperrors.NewValidation("no price for age group %q on slot %d", key, slot.ID)
		}

		items = append(items, models.BookingItem{
			AgeGroupID:  price.AgeGroupID,
			Quantity:    qty,
			PriceCents:  price.PriceCents * int64(qty),
			FreeCredits: price.FreeCredits * int64(qty),
			PaidCredits: price.PaidCredits * int64(qty),
		})
		needFree += price.FreeCredits * int64(qty)
		needPaid += price.PaidCredits * int64(qty)
	}

	return items, needFree, needPaid, nil
}

// Cancel applies the cancellation policy: enough notice refunds the
// credits, anything later forfeits them. The booking must belong to the
// calling customer.
func (s *BookingService) Cancel(ctx context.Context, customerID int64, req *models.CancelBookingRequest) (*models.CancelBookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil || booking.CustomerID != customerID {
		// Cross-customer bookings are indistinguishable from missing ones
		return nil, &apperrors.NotFoundError{Entity: "booking", ID: req.BookingID}
	}

	slot, err := s.slotRepo.GetByID(ctx, booking.SlotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	if slot == nil {
		return nil, apperrors.NewInvariant("booking %d references missing slot %d", booking.ID, booking.SlotID)
	}

	wallet, err := s.wallets.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	policyHours := s.settings.CancellationPolicyHours(ctx)
	refund := credits.RefundEligible(time.Now(), slot.StartsAt, policyHours)

	outcome, err := s.bookingRepo.CancelSettled(ctx, booking.ID, wallet.ID, refund,
		fmt.Sprintf("Refund for booking %d", booking.ID))
	if err != nil {
		return nil, err
	}

	resp := &models.CancelBookingResponse{}
	if outcome.Refunded {
		metrics.BookingsCancelled.WithLabelValues("refunded").Inc()
		resp.Status = models.BookingRefunded
		resp.RefundedFree = outcome.Free
		resp.RefundedPaid = outcome.Paid
		resp.Message = "Booking cancelled, credits refunded"

		event := models.BookingRefundedEvent{
			BookingID:    booking.ID,
			SlotID:       booking.SlotID,
			CustomerID:   customerID,
			RefundedFree: outcome.Free,
			RefundedPaid: outcome.Paid,
			Timestamp:    time.Now(),
		}
		if err := s.natsClient.Publish(models.EventBookingRefunded, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish booking refunded event",
				"error", err,
				"booking_id", booking.ID,
				"event_type", models.EventBookingRefunded)
		}
	} else {
		metrics.BookingsCancelled.WithLabelValues("forfeited").Inc()
		resp.Status = models.BookingCancelled
		resp.ForfeitedFree = outcome.Free
		resp.ForfeitedPaid = outcome.Paid
		resp.Message = fmt.Sprintf("Booking cancelled within %d hours of start, credits forfeited", policyHours)

		event := models.BookingCancelledEvent{
			BookingID:     booking.ID,
			SlotID:        booking.SlotID,
			CustomerID:    customerID,
			ForfeitedFree: outcome.Free,
			ForfeitedPaid: outcome.Paid,
			Timestamp:     time.Now(),
		}
		if err := s.natsClient.Publish(models.EventBookingCancelled, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish booking cancelled event",
				"error", err,
				"booking_id", booking.ID,
				"event_type", models.EventBookingCancelled)
		}
	}

	return resp, nil
}

// Get returns one booking with its items and redemption state. Other
// customers' bookings answer NotFound.
func (s *BookingService) Get(ctx context.Context, customerID, bookingID int64) (*models.BookingDetailResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil || booking.CustomerID != customerID {
		return nil, &apperrors.NotFoundError{Entity: "booking", ID: bookingID}
	}

	items, err := s.bookingRepo.GetItems(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking items: %w", err)
	}

	views := make([]models.BookingItemView, len(items))
	for i, item := range items {
		redemptions, err := s.bookingRepo.ListRedemptions(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list redemptions: %w", err)
		}
		views[i] = models.BookingItemView{
			BookingItem: item,
			Redemptions: redemptions,
		}
	}

	return &models.BookingDetailResponse{
		Booking:   *booking,
		ItemViews: views,
	}, nil
}

func (s *BookingService) List(ctx context.Context, customerID int64) ([]models.ListBookingsResponseItem, error) {
	bookings, err := s.bookingRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}

	result := make([]models.ListBookingsResponseItem, len(bookings))
	for i, booking := range bookings {
		result[i] = models.ListBookingsResponseItem{
			ID:       booking.ID,
			SlotID:   booking.SlotID,
			Status:   booking.Status,
			Quantity: booking.Quantity,
		}
	}

	return result, nil
}

func (s *BookingService) ListSlots(ctx context.Context, eventID int64) ([]models.ListSlotsResponseItem, error) {
	event, err := s.slotRepo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, &apperrors.NotFoundError{Entity: "event", ID: eventID}
	}

	slots, err := s.slotRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	result := make([]models.ListSlotsResponseItem, 0, len(slots))
	for _, slot := range slots {
		prices, err := s.slotRepo.GetPrices(ctx, slot.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get slot prices: %w", err)
		}
		result = append(result, models.ListSlotsResponseItem{
			ID:             slot.ID,
			StartsAt:       slot.StartsAt.Format(time.RFC3339),
			EndsAt:         slot.EndsAt.Format(time.RFC3339),
			Capacity:       slot.Capacity,
			BookedQuantity: slot.BookedQuantity,
			Prices:         prices,
		})
	}

	return result, nil
}

// Redeem marks units of one booking item's pending redemption (claim or
// attendance) as redeemed. Quantity 0 redeems everything remaining; the
// row closes as REDEEMED once the full quantity is reached. Only the
// merchant owning the slot's event may redeem.
func (s *BookingService) Redeem(ctx context.Context, merchantID, bookingItemID int64, purpose string, quantity int) error {
	if purpose != models.RedemptionClaim && purpose != models.RedemptionAttendance {
		return apperrors.NewValidation("unknown redemption purpose %q", purpose)
	}

	ic, err := s.bookingRepo.GetItemContext(ctx, bookingItemID)
	if err != nil {
		return fmt.Errorf("failed to get booking item: %w", err)
	}
	if ic == nil || ic.MerchantID != merchantID {
		return &apperrors.NotFoundError{Entity: "booking item", ID: bookingItemID}
	}
	if ic.BookingStatus != models.BookingConfirmed {
		return apperrors.NewValidation("booking %d is %s, not redeemable", ic.BookingID, ic.BookingStatus)
	}

	rd, err := s.bookingRepo.GetRedemption(ctx, bookingItemID, purpose)
	if err != nil {
		return fmt.Errorf("failed to get redemption: %w", err)
	}
	if rd == nil || rd.Status != models.RedemptionPending {
		return apperrors.NewValidation("no pending %s redemption for item %d", purpose, bookingItemID)
	}

	amount, err := credits.RedeemAmount(rd.Quantity, rd.QuantityRedeemed, quantity)
	if err != nil {
		return err
	}

	done, err := s.bookingRepo.RedeemQuantity(ctx, bookingItemID, purpose, amount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to redeem: %w", err)
	}
	if !done {
		return apperrors.NewValidation("no pending %s redemption for item %d", purpose, bookingItemID)
	}

	return nil
}

// MarkAbsent records a no-show on one item's attendance redemption.
func (s *BookingService) MarkAbsent(ctx context.Context, merchantID, bookingItemID int64) error {
	ic, err := s.bookingRepo.GetItemContext(ctx, bookingItemID)
	if err != nil {
		return fmt.Errorf("failed to get booking item: %w", err)
	}
	if ic == nil || ic.MerchantID != merchantID {
		return &apperrors.NotFoundError{Entity: "booking item", ID: bookingItemID}
	}

	done, err := s.bookingRepo.SetRedemptionStatus(ctx, bookingItemID, models.RedemptionAttendance, models.RedemptionAbsent, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark absent: %w", err)
	}
	if !done {
		return apperrors.NewValidation("no pending attendance redemption for item %d", bookingItemID)
	}

	return nil
}

// SetSlotPrice configures one price row on a merchant-owned slot,
// enforcing the paid-credit floor of the active conversion.
func (s *BookingService) SetSlotPrice(ctx context.Context, merchantID, slotID int64, req *models.SetSlotPriceRequest) (*models.SlotPrice, error) {
	if req.PriceCents <= 0 {
		return nil, apperrors.NewValidation("price_cents must be positive")
	}
	if req.PaidCredits < 0 || req.FreeCredits < 0 {
		return nil, apperrors.NewValidation("credit amounts must not be negative")
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	if slot == nil {
		return nil, &apperrors.NotFoundError{Entity: "slot", ID: slotID}
	}

	event, err := s.slotRepo.GetEvent(ctx, slot.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || event.MerchantID != merchantID {
		return nil, &apperrors.NotFoundError{Entity: "slot", ID: slotID}
	}

	if req.AgeGroupID != nil {
		groups, err := s.slotRepo.ListAgeGroups(ctx, slot.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to list age groups: %w", err)
		}
		known := false
		for _, g := range groups {
			if g.ID == *req.AgeGroupID {
				known = true
				break
			}
		}
		if !known {
			return nil, apperrors.NewValidation("age group %d does not belong to event %d", *req.AgeGroupID, slot.EventID)
		}
	}

	price := &models.SlotPrice{
		SlotID:      slotID,
		AgeGroupID:  req.AgeGroupID,
		PriceCents:  req.PriceCents,
		PaidCredits: req.PaidCredits,
		FreeCredits: req.FreeCredits,
	}

	if err := s.conversions.ValidateSlotPricing(ctx, price); err != nil {
		return nil, err
	}

	if err := s.slotRepo.SetPrice(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to set slot price: %w", err)
	}

	return price, nil
}
