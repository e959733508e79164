package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"tiketku/internal/models"
)

// TestClient provides methods for testing the API
type TestClient struct {
	BaseURL    string
	Email      string
	Password   string
	HTTPClient *http.Client
}

// NewTestClient creates a client authenticating as the given account
func NewTestClient(baseURL, email, password string) *TestClient {
	return &TestClient{
		BaseURL:  baseURL,
		Email:    email,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Email != "" {
		req.SetBasicAuth(c.Email, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response, out *T) {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// Register creates a new customer account; registration needs no auth
func (c *TestClient) Register(t *testing.T, email, password string) *models.RegisterResponse {
	req := models.RegisterRequest{Email: email, Password: password}

	resp := c.makeRequest(t, "POST", "/api/auth/register", req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/auth/register: expected 201, got %d", resp.StatusCode)
	}

	var account models.RegisterResponse
	decodeBody(t, resp, &account)
	return &account
}

// ListGrants returns the caller's credit grants
func (c *TestClient) ListGrants(t *testing.T) []models.CreditGrant {
	resp := c.makeRequest(t, "GET", "/api/wallet/grants", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/wallet/grants: expected 200, got %d", resp.StatusCode)
	}

	var grants []models.CreditGrant
	decodeBody(t, resp, &grants)
	return grants
}

// SetSlotPrice upserts one price row on a merchant-owned slot
func (c *TestClient) SetSlotPrice(t *testing.T, slotID int64, req models.SetSlotPriceRequest) (*models.SlotPrice, *http.Response) {
	resp := c.makeRequest(t, "PUT", fmt.Sprintf("/api/merchant/slots/%d/prices", slotID), req)
	if resp.StatusCode != http.StatusOK {
		return nil, resp
	}

	var price models.SlotPrice
	decodeBody(t, resp, &price)
	return &price, nil
}

// GetWallet returns the caller's wallet balances
func (c *TestClient) GetWallet(t *testing.T) *models.WalletResponse {
	resp := c.makeRequest(t, "GET", "/api/wallet", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/wallet: expected 200, got %d", resp.StatusCode)
	}

	var wallet models.WalletResponse
	decodeBody(t, resp, &wallet)
	return &wallet
}

// ListSlots lists slots with availability for an event
func (c *TestClient) ListSlots(t *testing.T, eventID int64) []models.ListSlotsResponseItem {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/events/%d/slots", eventID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/events/%d/slots: expected 200, got %d", eventID, resp.StatusCode)
	}

	var slots []models.ListSlotsResponseItem
	decodeBody(t, resp, &slots)
	return slots
}

// CreateBooking books quantities on a slot
func (c *TestClient) CreateBooking(t *testing.T, slotID int64, quantities map[string]int, allowFallback bool) (*models.CreateBookingResponse, *http.Response) {
	req := models.CreateBookingRequest{
		SlotID:            slotID,
		Quantities:        quantities,
		AllowPaidFallback: allowFallback,
	}

	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	if resp.StatusCode != http.StatusCreated {
		return nil, resp
	}

	var booking models.CreateBookingResponse
	decodeBody(t, resp, &booking)
	return &booking, nil
}

// ListBookings lists the caller's bookings
func (c *TestClient) ListBookings(t *testing.T) []models.ListBookingsResponseItem {
	resp := c.makeRequest(t, "GET", "/api/bookings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/bookings: expected 200, got %d", resp.StatusCode)
	}

	var bookings []models.ListBookingsResponseItem
	decodeBody(t, resp, &bookings)
	return bookings
}

// CancelBooking cancels a booking and returns the outcome
func (c *TestClient) CancelBooking(t *testing.T, bookingID int64) *models.CancelBookingResponse {
	req := models.CancelBookingRequest{BookingID: bookingID}

	resp := c.makeRequest(t, "PATCH", "/api/bookings/cancel", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH /api/bookings/cancel: expected 200, got %d", resp.StatusCode)
	}

	var outcome models.CancelBookingResponse
	decodeBody(t, resp, &outcome)
	return &outcome
}

// ListPackages lists purchasable credit packages
func (c *TestClient) ListPackages(t *testing.T) []models.PurchasePackage {
	resp := c.makeRequest(t, "GET", "/api/packages", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/packages: expected 200, got %d", resp.StatusCode)
	}

	var packages []models.PurchasePackage
	decodeBody(t, resp, &packages)
	return packages
}

// PurchasePackage starts a gateway payment for a package
func (c *TestClient) PurchasePackage(t *testing.T, packageID int64) *models.PurchasePackageResponse {
	req := models.PurchasePackageRequest{PackageID: packageID}

	resp := c.makeRequest(t, "POST", "/api/packages/purchase", req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/packages/purchase: expected 201, got %d", resp.StatusCode)
	}

	var purchase models.PurchasePackageResponse
	decodeBody(t, resp, &purchase)
	return &purchase
}

// SendPaymentWebhook delivers a gateway notification to the callback endpoint
func (c *TestClient) SendPaymentWebhook(t *testing.T, notification models.PaymentNotificationPayload) {
	resp := c.makeRequest(t, "POST", "/api/payments/notifications", notification)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/payments/notifications: expected 200, got %d", resp.StatusCode)
	}
}

// RecommendCredits asks for the credit floor of an RM price
func (c *TestClient) RecommendCredits(t *testing.T, priceCents int64) *models.CreditBreakdownResponse {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/conversions/recommend?price_cents=%d", priceCents), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/conversions/recommend: expected 200, got %d", resp.StatusCode)
	}

	var breakdown models.CreditBreakdownResponse
	decodeBody(t, resp, &breakdown)
	return &breakdown
}

// HealthCheck verifies the service is up
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health: expected 200, got %d", resp.StatusCode)
	}
}
