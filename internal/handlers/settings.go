package handlers

import (
	"net/http"

	"tiketku/internal/models"

	"github.com/gin-gonic/gin"
)

// Settings handlers

// ListSettings - GET /api/admin/settings
func (h *Handlers) ListSettings(c *gin.Context) {
	rows, err := h.services.Settings.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list settings")
		return
	}

	c.JSON(http.StatusOK, rows)
}

// SetSetting - PUT /api/admin/settings
func (h *Handlers) SetSetting(c *gin.Context) {
	var req models.SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Settings.Set(c.Request.Context(), &req); err != nil {
		respondError(c, err, "Failed to set setting")
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": req.Value})
}
