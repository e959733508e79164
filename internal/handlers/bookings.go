package handlers

import (
	"net/http"
	"strconv"

	"tiketku/internal/middleware"
	"tiketku/internal/models"

	"github.com/gin-gonic/gin"
)

// Booking handlers

// CreateBooking - POST /api/bookings
// Settles the booking against the wallet immediately.
func (h *Handlers) CreateBooking(c *gin.Context) {
	customerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Bookings.Book(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, err, "Failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListBookings - GET /api/bookings
func (h *Handlers) ListBookings(c *gin.Context) {
	customerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response, err := h.services.Bookings.List(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to list bookings")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetBooking - GET /api/bookings/:id
// Includes items and their claim/attendance state.
func (h *Handlers) GetBooking(c *gin.Context) {
	customerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	response, err := h.services.Bookings.Get(c.Request.Context(), customerID, bookingID)
	if err != nil {
		respondError(c, err, "Failed to get booking")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CancelBooking - PATCH /api/bookings/cancel
// Refunds or forfeits per the cancellation policy.
func (h *Handlers) CancelBooking(c *gin.Context) {
	customerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Bookings.Cancel(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, err, "Failed to cancel booking")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListSlots - GET /api/events/:id/slots
func (h *Handlers) ListSlots(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	response, err := h.services.Bookings.ListSlots(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err, "Failed to list slots")
		return
	}

	c.JSON(http.StatusOK, response)
}

// Redeem - POST /api/merchant/redemptions/redeem
// Marks units of a claim or attendance as redeemed.
func (h *Handlers) Redeem(c *gin.Context) {
	merchantID, ok := middleware.MerchantIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Merchant account required"})
		return
	}

	var req models.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Bookings.Redeem(c.Request.Context(), merchantID, req.BookingItemID, req.Purpose, req.Quantity); err != nil {
		respondError(c, err, "Failed to redeem")
		return
	}

	c.Status(http.StatusOK)
}

// MarkAbsent - POST /api/merchant/redemptions/absent
func (h *Handlers) MarkAbsent(c *gin.Context) {
	merchantID, ok := middleware.MerchantIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Merchant account required"})
		return
	}

	var req models.MarkAbsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Bookings.MarkAbsent(c.Request.Context(), merchantID, req.BookingItemID); err != nil {
		respondError(c, err, "Failed to mark absent")
		return
	}

	c.Status(http.StatusOK)
}
