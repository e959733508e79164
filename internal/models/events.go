package models

import "time"

// NATS Event Types
const (
	EventBookingConfirmed    = "booking.confirmed"
	EventBookingCancelled    = "booking.cancelled"
	EventBookingRefunded     = "booking.refunded"
	EventWalletCredited      = "wallet.credited"
	EventWalletDebited       = "wallet.debited"
	EventGrantExpired        = "grant.expired"
	EventConversionActivated = "conversion.activated"
	EventPayoutCalculated    = "payout.calculated"
	EventPayoutPaid          = "payout.paid"
)

// BookingConfirmedEvent represents a settled booking
type BookingConfirmedEvent struct {
	BookingID   int64     `json:"booking_id"`
	SlotID      int64     `json:"slot_id"`
	CustomerID  int64     `json:"customer_id"`
	Quantity    int       `json:"quantity"`
	FreeCredits int64     `json:"free_credits"`
	PaidCredits int64     `json:"paid_credits"`
	Timestamp   time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a forfeiting cancellation
type BookingCancelledEvent struct {
	BookingID     int64     `json:"booking_id"`
	SlotID        int64     `json:"slot_id"`
	CustomerID    int64     `json:"customer_id"`
	ForfeitedFree int64     `json:"forfeited_free"`
	ForfeitedPaid int64     `json:"forfeited_paid"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingRefundedEvent represents a refunding cancellation
type BookingRefundedEvent struct {
	BookingID    int64     `json:"booking_id"`
	SlotID       int64     `json:"slot_id"`
	CustomerID   int64     `json:"customer_id"`
	RefundedFree int64     `json:"refunded_free"`
	RefundedPaid int64     `json:"refunded_paid"`
	Timestamp    time.Time `json:"timestamp"`
}

// WalletCreditedEvent represents credits added to a wallet
type WalletCreditedEvent struct {
	WalletID  int64     `json:"wallet_id"`
	Type      string    `json:"type"`
	DeltaFree int64     `json:"delta_free"`
	DeltaPaid int64     `json:"delta_paid"`
	Timestamp time.Time `json:"timestamp"`
}

// WalletDebitedEvent represents credits consumed from a wallet
type WalletDebitedEvent struct {
	WalletID  int64     `json:"wallet_id"`
	Type      string    `json:"type"`
	DeltaFree int64     `json:"delta_free"`
	DeltaPaid int64     `json:"delta_paid"`
	Timestamp time.Time `json:"timestamp"`
}

// GrantExpiredEvent represents a swept credit grant
type GrantExpiredEvent struct {
	GrantID       int64     `json:"grant_id"`
	WalletID      int64     `json:"wallet_id"`
	ForfeitedFree int64     `json:"forfeited_free"`
	ForfeitedPaid int64     `json:"forfeited_paid"`
	Timestamp     time.Time `json:"timestamp"`
}

// ConversionActivatedEvent represents a rate change
type ConversionActivatedEvent struct {
	ConversionID int64     `json:"conversion_id"`
	CreditsPerRM float64   `json:"credits_per_rm"`
	Timestamp    time.Time `json:"timestamp"`
}

// PayoutCalculatedEvent represents a freshly aggregated payout
type PayoutCalculatedEvent struct {
	PayoutID   int64     `json:"payout_id"`
	MerchantID int64     `json:"merchant_id"`
	SlotID     int64     `json:"slot_id"`
	NetCents   int64     `json:"net_amount_cents"`
	Timestamp  time.Time `json:"timestamp"`
}

// PayoutPaidEvent represents payouts marked as paid
type PayoutPaidEvent struct {
	PayoutIDs []int64   `json:"payout_ids"`
	Timestamp time.Time `json:"timestamp"`
}
