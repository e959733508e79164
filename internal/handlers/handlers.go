package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"tiketku/internal/apperrors"
	"tiketku/internal/models"
	"tiketku/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		services: services,
	}
}

// respondError maps a domain error to its HTTP status. Business-rule
// failures travel with their detail; unexpected errors are logged and
// hidden behind the fallback message. A free-credit shortfall includes
// the fallback offer so the client can re-request with fallback enabled.
func respondError(c *gin.Context, err error, fallbackMsg string) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error(fallbackMsg, "error", err)
		c.JSON(status, gin.H{"error": fallbackMsg})
		return
	}

	var shortFree *apperrors.InsufficientFreeCreditsError
	if errors.As(err, &shortFree) {
		c.JSON(status, gin.H{
			"error": err.Error(),
			"fallback_offer": models.FallbackOffer{
				ShortfallFree:   shortFree.ShortfallFree,
				PaidToFreeRatio: shortFree.PaidToFreeRatio,
				PaidNeeded:      shortFree.ShortfallFree * shortFree.PaidToFreeRatio,
			},
		})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
