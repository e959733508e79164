package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/stan.go"

	"tiketku/internal/external"
	"tiketku/internal/models"
	"tiketku/internal/repository"
)

// Handlers relay domain events to the notification service. Delivery is
// best effort; a failed notification is logged and the message acked, so
// the stream never wedges on a flaky notifier.
type Handlers struct {
	repos    *repository.Repositories
	notifier *external.NotifierClient
}

func NewHandlers(repos *repository.Repositories, notifier *external.NotifierClient) *Handlers {
	return &Handlers{
		repos:    repos,
		notifier: notifier,
	}
}

func (h *Handlers) HandleBookingConfirmed(m *stan.Msg) {
	var event models.BookingConfirmedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking confirmed event", "error", err)
		return
	}

	slog.Info("Processing booking confirmed event",
		"booking_id", event.BookingID,
		"customer_id", event.CustomerID)

	h.send(external.Notification{
		UserID:  event.CustomerID,
		Kind:    "booking_confirmed",
		Subject: "Booking confirmed",
		Body: fmt.Sprintf("Booking #%d confirmed for %d attendee(s), %d free + %d paid credits charged.",
			event.BookingID, event.Quantity, event.FreeCredits, event.PaidCredits),
	})

	m.Ack()
}

func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Processing booking cancelled event", "booking_id", event.BookingID)

	h.send(external.Notification{
		UserID:  event.CustomerID,
		Kind:    "booking_cancelled",
		Subject: "Booking cancelled",
		Body: fmt.Sprintf("Booking #%d was cancelled inside the refund window; %d free + %d paid credits were forfeited.",
			event.BookingID, event.ForfeitedFree, event.ForfeitedPaid),
	})

	m.Ack()
}

func (h *Handlers) HandleBookingRefunded(m *stan.Msg) {
	var event models.BookingRefundedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking refunded event", "error", err)
		return
	}

	slog.Info("Processing booking refunded event", "booking_id", event.BookingID)

	h.send(external.Notification{
		UserID:  event.CustomerID,
		Kind:    "booking_refunded",
		Subject: "Booking refunded",
		Body: fmt.Sprintf("Booking #%d was cancelled; %d free + %d paid credits were returned to your wallet.",
			event.BookingID, event.RefundedFree, event.RefundedPaid),
	})

	m.Ack()
}

func (h *Handlers) HandleGrantExpired(m *stan.Msg) {
	var event models.GrantExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal grant expired event", "error", err)
		return
	}

	slog.Info("Processing grant expired event",
		"grant_id", event.GrantID,
		"wallet_id", event.WalletID)

	wallet, err := h.repos.Wallets.GetByID(context.Background(), event.WalletID)
	if err != nil || wallet == nil {
		slog.Error("Failed to resolve wallet for grant expiry notification",
			"error", err,
			"wallet_id", event.WalletID)
		m.Ack()
		return
	}

	h.send(external.Notification{
		UserID:  wallet.CustomerID,
		Kind:    "credits_expired",
		Subject: "Credits expired",
		Body: fmt.Sprintf("%d free and %d paid credits expired from your wallet.",
			event.ForfeitedFree, event.ForfeitedPaid),
	})

	m.Ack()
}

func (h *Handlers) HandleWalletCredited(m *stan.Msg) {
	var event models.WalletCreditedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal wallet credited event", "error", err)
		return
	}

	slog.Info("Processing wallet credited event",
		"wallet_id", event.WalletID,
		"type", event.Type)

	// Purchase and bonus credits both deserve a receipt
	wallet, err := h.repos.Wallets.GetByID(context.Background(), event.WalletID)
	if err != nil || wallet == nil {
		slog.Error("Failed to resolve wallet for credit notification",
			"error", err,
			"wallet_id", event.WalletID)
		m.Ack()
		return
	}

	h.send(external.Notification{
		UserID:  wallet.CustomerID,
		Kind:    "wallet_credited",
		Subject: "Credits added",
		Body: fmt.Sprintf("%d free and %d paid credits were added to your wallet (%s).",
			event.DeltaFree, event.DeltaPaid, event.Type),
	})

	m.Ack()
}

func (h *Handlers) HandlePayoutCalculated(m *stan.Msg) {
	var event models.PayoutCalculatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payout calculated event", "error", err)
		return
	}

	// Merchants are notified out of band; here we only keep the audit log
	slog.Info("Payout calculated",
		"payout_id", event.PayoutID,
		"merchant_id", event.MerchantID,
		"slot_id", event.SlotID,
		"net_cents", event.NetCents)

	m.Ack()
}

func (h *Handlers) send(n external.Notification) {
	if err := h.notifier.Send(n); err != nil {
		slog.Error("Failed to send notification",
			"error", err,
			"kind", n.Kind,
			"user_id", n.UserID)
	}
}
