package models

// RegisterRequest - self-service customer sign-up
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	ReferrerID *int64 `json:"referrer_id"`
}

// RegisterResponse - the created account
type RegisterResponse struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// SetSettingRequest - admin overrides one platform setting
type SetSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// BookingItemView pairs a cost snapshot with its redemption state
type BookingItemView struct {
	BookingItem
	Redemptions []Redemption `json:"redemptions"`
}

// BookingDetailResponse - one booking with items and redemptions
type BookingDetailResponse struct {
	Booking
	ItemViews []BookingItemView `json:"items"`
}

// CreateConversionRequest - admin creates a new conversion rate
type CreateConversionRequest struct {
	RMUnit          float64 `json:"rm_unit" binding:"required"`
	CreditsPerRM    float64 `json:"credits_per_rm" binding:"required"`
	PaidCreditPct   float64 `json:"paid_credit_percentage" binding:"required"`
	FreeCreditPct   float64 `json:"free_credit_percentage"`
	PaidToFreeRatio int64   `json:"paid_to_free_ratio" binding:"required"`
	EffectiveFrom   string  `json:"effective_from,omitempty"` // RFC3339; empty = scheduled now
	ValidUntil      string  `json:"valid_until,omitempty"`
	ActivateNow     bool    `json:"activate_now"`
}

// CreateConversionResponse - response after creating a conversion
type CreateConversionResponse struct {
	ID int64 `json:"id"`
}

// ActivateConversionRequest - admin activates a conversion
type ActivateConversionRequest struct {
	ConversionID int64 `json:"conversion_id" binding:"required"`
}

// CreditBreakdownResponse - recommended credit floor for an RM price
type CreditBreakdownResponse struct {
	PriceCents  int64 `json:"price_cents"`
	PaidCredits int64 `json:"paid_credits"`
	FreeCredits int64 `json:"free_credits"`
}

// WalletResponse - a customer's cached balances
type WalletResponse struct {
	WalletID    int64 `json:"wallet_id"`
	FreeCredits int64 `json:"free_credits"`
	PaidCredits int64 `json:"paid_credits"`
}

// CreateBookingRequest - book a slot against the wallet.
// Quantities maps age_group_id (or "general") to a requested count.
type CreateBookingRequest struct {
	SlotID            int64          `json:"slot_id" binding:"required"`
	Quantities        map[string]int `json:"quantities" binding:"required"`
	AllowPaidFallback bool           `json:"allow_paid_fallback"`
}

// CreateBookingResponse - result of a confirmed booking
type CreateBookingResponse struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	FreeCredits int64  `json:"free_credits_charged"`
	PaidCredits int64  `json:"paid_credits_charged"`
}

// FallbackOffer is returned with a 422 when free credits fall short and
// the caller did not permit paid-credit fallback.
type FallbackOffer struct {
	ShortfallFree   int64 `json:"shortfall_free"`
	PaidToFreeRatio int64 `json:"paid_to_free_ratio"`
	PaidNeeded      int64 `json:"paid_credits_needed"`
}

// CancelBookingRequest - cancel a booking
type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// CancelBookingResponse reports the cancellation outcome; forfeited
// amounts are zero when the booking was refunded.
type CancelBookingResponse struct {
	Status        string `json:"status"`
	RefundedFree  int64  `json:"refunded_free_credits"`
	RefundedPaid  int64  `json:"refunded_paid_credits"`
	ForfeitedFree int64  `json:"forfeited_free_credits"`
	ForfeitedPaid int64  `json:"forfeited_paid_credits"`
	Message       string `json:"message"`
}

// ListBookingsResponseItem - element of the bookings list
type ListBookingsResponseItem struct {
	ID       int64  `json:"id"`
	SlotID   int64  `json:"slot_id"`
	Status   string `json:"status"`
	Quantity int    `json:"quantity"`
}

// PurchasePackageRequest - start a gateway payment for a credit package
type PurchasePackageRequest struct {
	PackageID int64 `json:"package_id" binding:"required"`
}

// PurchasePackageResponse - gateway redirect data
type PurchasePackageResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

// ListSlotsResponseItem - availability view of one slot
type ListSlotsResponseItem struct {
	ID             int64       `json:"id"`
	StartsAt       string      `json:"starts_at"`
	EndsAt         string      `json:"ends_at"`
	Capacity       *int        `json:"capacity"`
	BookedQuantity int         `json:"booked_quantity"`
	Prices         []SlotPrice `json:"prices"`
}

// CalculatePayoutsResponse - batch outcome of a payout calculation run
type CalculatePayoutsResponse struct {
	SlotsProcessed int `json:"slots_processed"`
	SlotsFailed    int `json:"slots_failed"`
}

// MarkPayoutsPaidRequest - admin marks payouts as paid
type MarkPayoutsPaidRequest struct {
	PayoutIDs []int64 `json:"payout_ids" binding:"required"`
}

// RequestPayoutRequest - merchant requests payment of pending payouts
type RequestPayoutRequest struct {
	PayoutIDs []int64 `json:"payout_ids" binding:"required"`
}

// RedeemRequest - merchant redeems a claim or attendance for one item.
// Quantity 0 redeems everything still pending on the item.
type RedeemRequest struct {
	BookingItemID int64  `json:"booking_item_id" binding:"required"`
	Purpose       string `json:"purpose" binding:"required"`
	Quantity      int    `json:"quantity"`
}

// MarkAbsentRequest - merchant records a no-show
type MarkAbsentRequest struct {
	BookingItemID int64 `json:"booking_item_id" binding:"required"`
}

// SetSlotPriceRequest - merchant configures one slot price row
type SetSlotPriceRequest struct {
	AgeGroupID  *int64 `json:"age_group_id"`
	PriceCents  int64  `json:"price_cents" binding:"required"`
	PaidCredits int64  `json:"paid_credits" binding:"required"`
	FreeCredits int64  `json:"free_credits"`
}

// PayoutView - one payout row joined to slot/event for reporting
type PayoutView struct {
	PayoutID        int64        `json:"payout_id"`
	MerchantID      int64        `json:"merchant_id"`
	MerchantName    string       `json:"merchant_name"`
	EventID         int64        `json:"event_id"`
	EventTitle      string       `json:"event_title"`
	SlotID          int64        `json:"slot_id"`
	SlotStartsAt    string       `json:"slot_starts_at"`
	GrossCents      int64        `json:"gross_amount_cents"`
	CommissionCents int64        `json:"commission_cents"`
	NetCents        int64        `json:"net_amount_cents"`
	Breakdown       []PayoutLine `json:"breakdown"`
	Status          string       `json:"status"`
	AvailableAt     string       `json:"available_at"`
	PaidAt          *string      `json:"paid_at"`
}

// PaymentNotificationPayload - webhook notifications from the payment gateway
type PaymentNotificationPayload struct {
	PaymentID string                 `json:"paymentId"`
	OrderID   string                 `json:"orderId"`
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// ReconcileResponse - wallet cache vs ledger comparison
type ReconcileResponse struct {
	WalletID   int64 `json:"wallet_id"`
	CachedFree int64 `json:"cached_free"`
	CachedPaid int64 `json:"cached_paid"`
	LedgerFree int64 `json:"ledger_free"`
	LedgerPaid int64 `json:"ledger_paid"`
	Consistent bool  `json:"consistent"`
}
