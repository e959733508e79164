package handlers

import (
	"net/http"
	"strconv"
	"time"

	"tiketku/internal/middleware"
	"tiketku/internal/models"

	"github.com/gin-gonic/gin"
)

// Payout handlers

// CalculatePayouts - POST /api/admin/payouts/calculate
// Runs the payout aggregation for all ended slots without a payout.
func (h *Handlers) CalculatePayouts(c *gin.Context) {
	response, err := h.services.Payouts.CalculateEligible(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err, "Failed to calculate payouts")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListPayouts - GET /api/admin/payouts
func (h *Handlers) ListPayouts(c *gin.Context) {
	views, err := h.services.Payouts.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list payouts")
		return
	}

	c.JSON(http.StatusOK, views)
}

// ListMyPayouts - GET /api/merchant/payouts
func (h *Handlers) ListMyPayouts(c *gin.Context) {
	merchantID, ok := middleware.MerchantIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Merchant account required"})
		return
	}

	views, err := h.services.Payouts.ListForMerchant(c.Request.Context(), merchantID)
	if err != nil {
		respondError(c, err, "Failed to list payouts")
		return
	}

	c.JSON(http.StatusOK, views)
}

// RequestPayouts - POST /api/merchant/payouts/request
func (h *Handlers) RequestPayouts(c *gin.Context) {
	merchantID, ok := middleware.MerchantIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Merchant account required"})
		return
	}

	var req models.RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	moved, err := h.services.Payouts.Request(c.Request.Context(), merchantID, &req)
	if err != nil {
		respondError(c, err, "Failed to request payouts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"requested": moved})
}

// MarkPayoutsPaid - POST /api/admin/payouts/paid
func (h *Handlers) MarkPayoutsPaid(c *gin.Context) {
	var req models.MarkPayoutsPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paid, err := h.services.Payouts.MarkAsPaid(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to mark payouts paid")
		return
	}

	c.JSON(http.StatusOK, gin.H{"paid": paid})
}

// SetSlotPrice - PUT /api/merchant/slots/:id/prices
// Floor-validated against the active conversion.
func (h *Handlers) SetSlotPrice(c *gin.Context) {
	merchantID, ok := middleware.MerchantIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Merchant account required"})
		return
	}

	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot id"})
		return
	}

	var req models.SetSlotPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := h.services.Bookings.SetSlotPrice(c.Request.Context(), merchantID, slotID, &req)
	if err != nil {
		respondError(c, err, "Failed to set slot price")
		return
	}

	c.JSON(http.StatusOK, price)
}
