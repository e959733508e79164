package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiketku/internal/apperrors"
	"tiketku/internal/middleware"
	"tiketku/internal/models"
)

// asUser injects an authenticated principal the way BasicAuth does.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.ContextWithUser(c.Request.Context(), user))
		c.Next()
	}
}

func setupRouter(user *models.User) (*gin.Engine, *Handlers) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandlers(nil)

	group := r.Group("/api")
	if user != nil {
		group.Use(asUser(user))
	}
	group.POST("/bookings", h.CreateBooking)
	group.PATCH("/bookings/cancel", h.CancelBooking)
	group.GET("/events/:id/slots", h.ListSlots)
	group.GET("/conversions/recommend", h.RecommendCredits)
	group.POST("/merchant/redemptions/redeem", h.Redeem)
	group.POST("/packages/purchase", h.PurchasePackage)

	return r, h
}

func customer() *models.User {
	return &models.User{UserID: 7, Role: models.RoleCustomer}
}

func TestCreateBookingRequiresAuth(t *testing.T) {
	r, _ := setupRouter(nil)

	body, _ := json.Marshal(models.CreateBookingRequest{
		SlotID:     1,
		Quantities: map[string]int{"general": 1},
	})
	req, _ := http.NewRequest("POST", "/api/bookings", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateBookingRejectsMalformedBody(t *testing.T) {
	r, _ := setupRouter(customer())

	req, _ := http.NewRequest("POST", "/api/bookings", bytes.NewBufferString(`{"slot_id": "nope"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBookingRequiresBookingID(t *testing.T) {
	r, _ := setupRouter(customer())

	req, _ := http.NewRequest("PATCH", "/api/bookings/cancel", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSlotsRejectsBadEventID(t *testing.T) {
	r, _ := setupRouter(customer())

	req, _ := http.NewRequest("GET", "/api/events/abc/slots", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendCreditsValidation(t *testing.T) {
	r, _ := setupRouter(customer())

	for _, query := range []string{"", "?price_cents=abc", "?price_cents=-100", "?price_cents=0"} {
		req, _ := http.NewRequest("GET", "/api/conversions/recommend"+query, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "query %q", query)
	}
}

func TestRedeemRequiresMerchantAccount(t *testing.T) {
	// Customer without a merchant id must not reach the service
	r, _ := setupRouter(customer())

	body, _ := json.Marshal(models.RedeemRequest{BookingItemID: 1, Purpose: models.RedemptionClaim})
	req, _ := http.NewRequest("POST", "/api/merchant/redemptions/redeem", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPurchasePackageRequiresPackageID(t *testing.T) {
	r, _ := setupRouter(customer())

	req, _ := http.NewRequest("POST", "/api/packages/purchase", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperrors.NewValidation("bad input"), http.StatusUnprocessableEntity},
		{"slot full", &apperrors.SlotFullError{SlotID: 1, Capacity: 10, Requested: 11}, http.StatusUnprocessableEntity},
		{"insufficient paid", &apperrors.InsufficientCreditsError{NeededPaid: 9, HavePaid: 2}, http.StatusUnprocessableEntity},
		{"not found", &apperrors.NotFoundError{Entity: "booking", ID: 5}, http.StatusNotFound},
		{"unauthorized", &apperrors.UnauthorizedError{Message: "nope"}, http.StatusForbidden},
		{"internal", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err, "fallback message")
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRespondErrorCarriesFallbackOffer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, &apperrors.InsufficientFreeCreditsError{
		ShortfallFree:   3,
		PaidToFreeRatio: 3,
	}, "fallback message")

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var payload struct {
		Error         string               `json:"error"`
		FallbackOffer models.FallbackOffer `json:"fallback_offer"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, int64(3), payload.FallbackOffer.ShortfallFree)
	assert.Equal(t, int64(3), payload.FallbackOffer.PaidToFreeRatio)
	assert.Equal(t, int64(9), payload.FallbackOffer.PaidNeeded)
}
