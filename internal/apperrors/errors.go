package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed or out-of-range input. Not retryable.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientFreeCreditsError is the expected negotiation outcome when a
// booking needs more free credits than the wallet holds and the caller has
// not permitted paid-credit fallback. It carries the fallback offer so the
// caller can re-request with fallback enabled.
type InsufficientFreeCreditsError struct {
	ShortfallFree   int64
	PaidToFreeRatio int64
}

func (e *InsufficientFreeCreditsError) Error() string {
	return fmt.Sprintf("insufficient free credits: short %d free (ratio %d paid per free)",
		e.ShortfallFree, e.PaidToFreeRatio)
}

// InsufficientCreditsError means even paid-credit fallback cannot cover the
// booking. Terminal for this attempt.
type InsufficientCreditsError struct {
	NeededPaid int64
	HavePaid   int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d paid, have %d", e.NeededPaid, e.HavePaid)
}

// SlotFullError means the reservation would exceed slot capacity.
type SlotFullError struct {
	SlotID    int64
	Capacity  int
	Requested int
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("slot %d is full (capacity %d, requested %d)", e.SlotID, e.Capacity, e.Requested)
}

// NotFoundError covers missing entities and entities outside the caller's
// tenant scope, so existence never leaks across tenants.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// UnauthorizedError means the actor lacks the role or ownership required.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// InvariantViolationError signals corrupted state, e.g. a wallet cache that
// disagrees with its ledger sum. Logged at error severity, never surfaced
// as a business outcome.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string { return "invariant violation: " + e.Message }

func NewInvariant(format string, args ...any) *InvariantViolationError {
	return &InvariantViolationError{Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps a domain error (possibly wrapped) to the status code the
// API layer returns. Business-rule failures are 422, missing entities 404,
// auth failures 403.
func HTTPStatus(err error) int {
	var (
		validation   *ValidationError
		shortFree    *InsufficientFreeCreditsError
		shortCredits *InsufficientCreditsError
		slotFull     *SlotFullError
		notFound     *NotFoundError
		unauthorized *UnauthorizedError
	)
	switch {
	case errors.As(err, &validation),
		errors.As(err, &shortFree),
		errors.As(err, &shortCredits),
		errors.As(err, &slotFull):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
