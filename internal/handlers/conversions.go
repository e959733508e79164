package handlers

import (
	"net/http"
	"strconv"

	"tiketku/internal/models"

	"github.com/gin-gonic/gin"
)

// Conversion handlers

// CreateConversion - POST /api/admin/conversions
func (h *Handlers) CreateConversion(c *gin.Context) {
	var req models.CreateConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Conversions.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create conversion")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListConversions - GET /api/admin/conversions
func (h *Handlers) ListConversions(c *gin.Context) {
	conversions, err := h.services.Conversions.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list conversions")
		return
	}

	c.JSON(http.StatusOK, conversions)
}

// ActivateConversion - POST /api/admin/conversions/activate
func (h *Handlers) ActivateConversion(c *gin.Context) {
	var req models.ActivateConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.services.Conversions.Activate(c.Request.Context(), req.ConversionID)
	if err != nil {
		respondError(c, err, "Failed to activate conversion")
		return
	}

	c.JSON(http.StatusOK, conv)
}

// GetActiveConversion - GET /api/conversions/active
func (h *Handlers) GetActiveConversion(c *gin.Context) {
	conv, err := h.services.Conversions.GetActive(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get active conversion")
		return
	}

	c.JSON(http.StatusOK, conv)
}

// RecommendCredits - GET /api/conversions/recommend?price_cents=N
// Returns the credit floor for an RM price under the active rate.
func (h *Handlers) RecommendCredits(c *gin.Context) {
	priceCents, err := strconv.ParseInt(c.Query("price_cents"), 10, 64)
	if err != nil || priceCents <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_cents must be a positive integer"})
		return
	}

	response, err := h.services.Conversions.RecommendCredits(c.Request.Context(), priceCents)
	if err != nil {
		respondError(c, err, "Failed to recommend credits")
		return
	}

	c.JSON(http.StatusOK, response)
}
