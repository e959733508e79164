package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"tiketku/internal/models"
)

// APIChecker runs read-only smoke checks against a live deployment.
type APIChecker struct {
	baseURL       string
	customerEmail string
	customerPass  string
	adminEmail    string
	adminPass     string
}

func NewAPIChecker(baseURL, customerEmail, customerPass, adminEmail, adminPass string) *APIChecker {
	return &APIChecker{
		baseURL:       baseURL,
		customerEmail: customerEmail,
		customerPass:  customerPass,
		adminEmail:    adminEmail,
		adminPass:     adminPass,
	}
}

// CheckAll probes the main endpoint groups and fails on the first
// response that does not match the documented contract.
func (v *APIChecker) CheckAll() error {
	log.Println("Running API smoke checks...")

	if err := v.checkHealth(); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if err := v.checkConversions(); err != nil {
		return fmt.Errorf("conversions check failed: %w", err)
	}

	if err := v.checkWallet(); err != nil {
		return fmt.Errorf("wallet check failed: %w", err)
	}

	if err := v.checkBookings(); err != nil {
		return fmt.Errorf("bookings check failed: %w", err)
	}

	if err := v.checkAdmin(); err != nil {
		return fmt.Errorf("admin check failed: %w", err)
	}

	log.Println("All smoke checks passed")
	return nil
}

func (v *APIChecker) checkHealth() error {
	resp, err := v.makeRequest("GET", "/health", nil, "", "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /health: expected 200, got %d", resp.StatusCode)
	}

	log.Println("Health endpoint OK")
	return nil
}

func (v *APIChecker) checkConversions() error {
	resp, err := v.makeRequest("GET", "/api/conversions/active", nil, v.customerEmail, v.customerPass)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 422 is the documented answer when no rate has been activated yet
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		return fmt.Errorf("GET /api/conversions/active: expected 200 or 422, got %d", resp.StatusCode)
	}

	if resp.StatusCode == http.StatusOK {
		rec, err := v.makeRequest("GET", "/api/conversions/recommend?price_cents=2500", nil, v.customerEmail, v.customerPass)
		if err != nil {
			return err
		}
		defer rec.Body.Close()

		if rec.StatusCode != http.StatusOK {
			return fmt.Errorf("GET /api/conversions/recommend: expected 200, got %d", rec.StatusCode)
		}

		var breakdown models.CreditBreakdownResponse
		if err := json.NewDecoder(rec.Body).Decode(&breakdown); err != nil {
			return fmt.Errorf("GET /api/conversions/recommend: failed to decode response: %w", err)
		}
		if breakdown.PaidCredits <= 0 {
			return fmt.Errorf("GET /api/conversions/recommend: expected positive paid credits, got %d", breakdown.PaidCredits)
		}
	}

	log.Println("Conversion endpoints OK")
	return nil
}

func (v *APIChecker) checkWallet() error {
	resp, err := v.makeRequest("GET", "/api/wallet", nil, v.customerEmail, v.customerPass)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/wallet: expected 200, got %d", resp.StatusCode)
	}

	var wallet models.WalletResponse
	if err := json.NewDecoder(resp.Body).Decode(&wallet); err != nil {
		return fmt.Errorf("GET /api/wallet: failed to decode response: %w", err)
	}
	if wallet.WalletID == 0 {
		return fmt.Errorf("GET /api/wallet: expected non-zero wallet ID")
	}

	txResp, err := v.makeRequest("GET", "/api/wallet/transactions", nil, v.customerEmail, v.customerPass)
	if err != nil {
		return err
	}
	defer txResp.Body.Close()

	if txResp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/wallet/transactions: expected 200, got %d", txResp.StatusCode)
	}

	pkgResp, err := v.makeRequest("GET", "/api/packages", nil, v.customerEmail, v.customerPass)
	if err != nil {
		return err
	}
	defer pkgResp.Body.Close()

	if pkgResp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/packages: expected 200, got %d", pkgResp.StatusCode)
	}

	log.Println("Wallet endpoints OK")
	return nil
}

func (v *APIChecker) checkBookings() error {
	resp, err := v.makeRequest("GET", "/api/bookings", nil, v.customerEmail, v.customerPass)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/bookings: expected 200, got %d", resp.StatusCode)
	}

	var bookings []models.ListBookingsResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&bookings); err != nil {
		return fmt.Errorf("GET /api/bookings: failed to decode response: %w", err)
	}

	log.Println("Booking endpoints OK")
	return nil
}

func (v *APIChecker) checkAdmin() error {
	if v.adminEmail == "" {
		log.Println("No admin credentials supplied, skipping admin checks")
		return nil
	}

	resp, err := v.makeRequest("GET", "/api/admin/payouts", nil, v.adminEmail, v.adminPass)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/admin/payouts: expected 200, got %d", resp.StatusCode)
	}

	// A customer must not reach the admin surface
	denied, err := v.makeRequest("GET", "/api/admin/payouts", nil, v.customerEmail, v.customerPass)
	if err != nil {
		return err
	}
	defer denied.Body.Close()

	if denied.StatusCode != http.StatusForbidden {
		return fmt.Errorf("GET /api/admin/payouts as customer: expected 403, got %d", denied.StatusCode)
	}

	log.Println("Admin endpoints OK")
	return nil
}

func (v *APIChecker) makeRequest(method, path string, body interface{}, email, password string) (*http.Response, error) {
	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		req, err = http.NewRequest(method, v.baseURL+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, v.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	if email != "" {
		req.SetBasicAuth(email, password)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	return resp, nil
}
