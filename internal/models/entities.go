package models

import (
	"time"
)

// Conversion statuses
const (
	ConversionActive    = "ACTIVE"
	ConversionScheduled = "SCHEDULED"
	ConversionInactive  = "INACTIVE"
)

// Booking statuses
const (
	BookingPendingPayment = "PENDING_PAYMENT"
	BookingConfirmed      = "CONFIRMED"
	BookingCancelled      = "CANCELLED"
	BookingRefunded       = "REFUNDED"
)

// Credit transaction types
const (
	TxPurchase = "PURCHASE"
	TxBooking  = "BOOKING"
	TxRefund   = "REFUND"
	TxBonus    = "BONUS"
	TxExpiry   = "EXPIRY"
)

// Credit grant sources
const (
	GrantRegistration = "REGISTRATION"
	GrantReferral     = "REFERRAL"
	GrantPurchase     = "PURCHASE"
)

// Payout statuses
const (
	PayoutPending   = "PENDING"
	PayoutRequested = "REQUESTED"
	PayoutPaid      = "PAID"
)

// Redemption purposes and statuses
const (
	RedemptionClaim      = "CLAIM"
	RedemptionAttendance = "ATTENDANCE"

	RedemptionPending  = "PENDING"
	RedemptionRedeemed = "REDEEMED"
	RedemptionAbsent   = "ABSENT"
	RedemptionExpired  = "EXPIRED"
)

// Package purchase statuses
const (
	PurchasePending   = "PENDING"
	PurchaseInitiated = "INITIATED"
	PurchaseCompleted = "COMPLETED"
	PurchaseFailed    = "FAILED"
)

// User roles
const (
	RoleCustomer = "CUSTOMER"
	RoleMerchant = "MERCHANT"
	RoleAdmin    = "ADMIN"
)

// User represents an account in the system
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	MerchantID   *int64    `json:"merchant_id" db:"merchant_id"`
	ReferrerID   *int64    `json:"referrer_id" db:"referrer_id"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// Merchant represents an event publisher receiving payouts
type Merchant struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Conversion is a time-ranged RM-to-credit exchange rate.
// At most one row is ACTIVE at any instant.
type Conversion struct {
	ID              int64      `json:"id" db:"id"`
	RMUnit          float64    `json:"rm_unit" db:"rm_unit"`
	CreditsPerRM    float64    `json:"credits_per_rm" db:"credits_per_rm"`
	PaidCreditPct   float64    `json:"paid_credit_percentage" db:"paid_credit_percentage"`
	FreeCreditPct   float64    `json:"free_credit_percentage" db:"free_credit_percentage"`
	PaidToFreeRatio int64      `json:"paid_to_free_ratio" db:"paid_to_free_ratio"`
	EffectiveFrom   time.Time  `json:"effective_from" db:"effective_from"`
	ValidUntil      *time.Time `json:"valid_until" db:"valid_until"`
	Status          string     `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Wallet caches the running free/paid credit balances of one customer.
// Mutated only through ledger-transaction application.
type Wallet struct {
	ID          int64     `json:"id" db:"id"`
	CustomerID  int64     `json:"customer_id" db:"customer_id"`
	FreeCredits int64     `json:"cached_free_credits" db:"cached_free_credits"`
	PaidCredits int64     `json:"cached_paid_credits" db:"cached_paid_credits"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreditGrant is a bounded, optionally expiring pool of credits from one source.
type CreditGrant struct {
	ID            int64      `json:"id" db:"id"`
	WalletID      int64      `json:"wallet_id" db:"wallet_id"`
	GrantType     string     `json:"grant_type" db:"grant_type"`
	FreeGranted   int64      `json:"free_credits_granted" db:"free_credits_granted"`
	PaidGranted   int64      `json:"paid_credits_granted" db:"paid_credits_granted"`
	FreeRemaining int64      `json:"free_credits_remaining" db:"free_credits_remaining"`
	PaidRemaining int64      `json:"paid_credits_remaining" db:"paid_credits_remaining"`
	ExpiresAt     *time.Time `json:"expires_at" db:"expires_at"`
	PackageID     *int64     `json:"purchase_package_id" db:"purchase_package_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// CreditTransaction is an immutable ledger row. The ledger is the sole
// source of truth for wallet history; cached wallet balances must always
// equal the running sum of deltas.
type CreditTransaction struct {
	ID          int64     `json:"id" db:"id"`
	WalletID    int64     `json:"wallet_id" db:"wallet_id"`
	Type        string    `json:"type" db:"type"`
	DeltaFree   int64     `json:"delta_free" db:"delta_free"`
	DeltaPaid   int64     `json:"delta_paid" db:"delta_paid"`
	BeforeFree  int64     `json:"before_free" db:"before_free"`
	BeforePaid  int64     `json:"before_paid" db:"before_paid"`
	Description string    `json:"description" db:"description"`
	PackageID   *int64    `json:"purchase_package_id" db:"purchase_package_id"`
	BookingID   *int64    `json:"booking_id" db:"booking_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PurchasePackage is a buyable credit bundle.
type PurchasePackage struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	PriceCents   int64     `json:"price_cents" db:"price_cents"`
	PaidCredits  int64     `json:"paid_credits" db:"paid_credits"`
	FreeCredits  int64     `json:"free_credits" db:"free_credits"`
	ValidityDays *int      `json:"validity_days" db:"validity_days"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// PackagePurchase tracks one gateway order for a credit package.
type PackagePurchase struct {
	ID          int64     `json:"id" db:"id"`
	WalletID    int64     `json:"wallet_id" db:"wallet_id"`
	PackageID   int64     `json:"package_id" db:"package_id"`
	OrderID     string    `json:"order_id" db:"order_id"`
	PaymentID   *string   `json:"payment_id" db:"payment_id"`
	Status      string    `json:"status" db:"status"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Event represents a published event owned by a merchant
type Event struct {
	ID         int64     `json:"id" db:"id"`
	MerchantID int64     `json:"merchant_id" db:"merchant_id"`
	Title      string    `json:"title" db:"title"`
	Status     string    `json:"status" db:"status"`
	AllAges    bool      `json:"all_ages" db:"all_ages"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// AgeGroup is a pricing bucket for an event. Events with all_ages=true
// use a single implicit general bucket instead.
type AgeGroup struct {
	ID      int64  `json:"id" db:"id"`
	EventID int64  `json:"event_id" db:"event_id"`
	Label   string `json:"label" db:"label"`
}

// EventSlot is one bookable occurrence of an event. capacity NULL means
// unlimited; booked_quantity never exceeds a finite capacity.
type EventSlot struct {
	ID             int64     `json:"id" db:"id"`
	EventID        int64     `json:"event_id" db:"event_id"`
	Capacity       *int      `json:"capacity" db:"capacity"`
	BookedQuantity int       `json:"booked_quantity" db:"booked_quantity"`
	StartsAt       time.Time `json:"starts_at" db:"starts_at"`
	EndsAt         time.Time `json:"ends_at" db:"ends_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// SlotPrice holds the per-age-group price of a slot, in RM cents and in
// credits. paid_credits may never be set below the floor computed from
// the active conversion.
type SlotPrice struct {
	ID          int64  `json:"id" db:"id"`
	SlotID      int64  `json:"slot_id" db:"slot_id"`
	AgeGroupID  *int64 `json:"age_group_id" db:"age_group_id"`
	PriceCents  int64  `json:"price_cents" db:"price_cents"`
	PaidCredits int64  `json:"paid_credits" db:"paid_credits"`
	FreeCredits int64  `json:"free_credits" db:"free_credits"`
}

// Booking is one customer's reservation of one slot
type Booking struct {
	ID         int64         `json:"id" db:"id"`
	SlotID     int64         `json:"slot_id" db:"slot_id"`
	CustomerID int64         `json:"customer_id" db:"customer_id"`
	Status     string        `json:"status" db:"status"`
	Quantity   int           `json:"quantity" db:"quantity"`
	BookedAt   time.Time     `json:"booked_at" db:"booked_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
	Items      []BookingItem `json:"items,omitempty"` // Not from DB, filled separately
}

// BookingItem snapshots the per-age-group cost at booking time
type BookingItem struct {
	ID          int64  `json:"id" db:"id"`
	BookingID   int64  `json:"booking_id" db:"booking_id"`
	AgeGroupID  *int64 `json:"age_group_id" db:"age_group_id"`
	Quantity    int    `json:"quantity" db:"quantity"`
	PriceCents  int64  `json:"price_cents" db:"price_cents"`
	FreeCredits int64  `json:"free_credits" db:"free_credits"`
	PaidCredits int64  `json:"paid_credits" db:"paid_credits"`
}

// Redemption tracks post-booking claim or attendance for one booking item.
// A single state machine serves both purposes, selected by the purpose tag.
type Redemption struct {
	ID               int64      `json:"id" db:"id"`
	BookingItemID    int64      `json:"booking_item_id" db:"booking_item_id"`
	Purpose          string     `json:"purpose" db:"purpose"`
	Status           string     `json:"status" db:"status"`
	Quantity         int        `json:"quantity" db:"quantity"`
	QuantityRedeemed int        `json:"quantity_redeemed" db:"quantity_redeemed"`
	RedeemedAt       *time.Time `json:"redeemed_at" db:"redeemed_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// PayoutLine is one age-group line of a payout's gross revenue.
// Attended counts redeemed attendance for reporting only.
type PayoutLine struct {
	AgeGroupID *int64 `json:"age_group_id"`
	AgeGroup   string `json:"age_group"`
	Quantity   int    `json:"quantity"`
	Attended   int    `json:"attended"`
	GrossCents int64  `json:"gross_cents"`
}

// MerchantSlotPayout is the aggregated settlement of one completed slot.
// One row per (merchant, slot); immutable once calculated except for
// status and paid_at.
type MerchantSlotPayout struct {
	ID              int64        `json:"id" db:"id"`
	MerchantID      int64        `json:"merchant_id" db:"merchant_id"`
	SlotID          int64        `json:"slot_id" db:"slot_id"`
	GrossCents      int64        `json:"gross_amount_cents" db:"gross_amount_cents"`
	CommissionCents int64        `json:"commission_cents" db:"commission_cents"`
	NetCents        int64        `json:"net_amount_cents" db:"net_amount_cents"`
	Breakdown       []PayoutLine `json:"breakdown" db:"breakdown"`
	Status          string       `json:"status" db:"status"`
	AvailableAt     time.Time    `json:"available_at" db:"available_at"`
	CalculatedAt    time.Time    `json:"calculated_at" db:"calculated_at"`
	PaidAt          *time.Time   `json:"paid_at" db:"paid_at"`
}

// Setting is one row of the read-only key/value configuration store
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
