package handlers

import (
	"net/http"

	"tiketku/internal/models"

	"github.com/gin-gonic/gin"
)

// User handlers

// Register - POST /api/auth/register
// Open endpoint; the created account authenticates with Basic Auth.
func (h *Handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Users.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, response)
}
