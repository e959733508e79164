package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotifierClient delivers customer-facing notifications (booking
// confirmations, expiry warnings) to the notification service.
type NotifierClient struct {
	baseURL    string
	httpClient *http.Client
}

type NotifierConfig struct {
	BaseURL string
	Timeout time.Duration
}

type Notification struct {
	UserID  int64  `json:"user_id"`
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func NewNotifierClient(cfg NotifierConfig) *NotifierClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &NotifierClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Send posts one notification. Callers treat failures as non-fatal.
func (nc *NotifierClient) Send(n Notification) error {
	if nc.baseURL == "" {
		return nil
	}

	jsonBody, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	resp, err := nc.httpClient.Post(nc.baseURL+"/api/v1/notifications", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notifier returned status %d", resp.StatusCode)
	}

	return nil
}
