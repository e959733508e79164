package handlers

import (
	"net/http"
	"strconv"

	"tiketku/internal/middleware"
	"tiketku/internal/models"

	"github.com/gin-gonic/gin"
)

// Wallet handlers

// GetWallet - GET /api/wallet
func (h *Handlers) GetWallet(c *gin.Context) {
	customerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response, err := h.services.Wallets.Get(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to get wallet")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListTransactions - GET /api/wallet/transactions?limit=N
func (h *Handlers) ListTransactions(c *gin.Context) {
	customerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	txs, err := h.services.Wallets.Transactions(c.Request.Context(), customerID, limit)
	if err != nil {
		respondError(c, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, txs)
}

// ListGrants - GET /api/wallet/grants
func (h *Handlers) ListGrants(c *gin.Context) {
	customerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	grants, err := h.services.Wallets.Grants(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to list grants")
		return
	}

	c.JSON(http.StatusOK, grants)
}

// ListPackages - GET /api/packages
func (h *Handlers) ListPackages(c *gin.Context) {
	packages, err := h.services.Wallets.ListPackages(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list packages")
		return
	}

	c.JSON(http.StatusOK, packages)
}

// PurchasePackage - POST /api/packages/purchase
func (h *Handlers) PurchasePackage(c *gin.Context) {
	customerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.PurchasePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Wallets.PurchasePackage(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, err, "Failed to purchase package")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// OnPaymentUpdates - POST /api/payments/notifications
// Receives webhook notifications from the payment gateway.
func (h *Handlers) OnPaymentUpdates(c *gin.Context) {
	var notification models.PaymentNotificationPayload
	if err := c.ShouldBindJSON(&notification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Wallets.HandlePaymentNotification(c.Request.Context(), &notification); err != nil {
		respondError(c, err, "Failed to handle notification")
		return
	}

	c.Status(http.StatusOK)
}

// ReconcileWallets - POST /api/admin/wallets/reconcile
func (h *Handlers) ReconcileWallets(c *gin.Context) {
	results, err := h.services.Wallets.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to reconcile wallets")
		return
	}

	c.JSON(http.StatusOK, results)
}
