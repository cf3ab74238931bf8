// Package payment abstracts the payment gateway used at the payment step.
// The service only ever needs a client secret for an intent covering the
// current order total; capture and refunds live with the gateway.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	dErrors "cornerstone/pkg/domain-errors"
)

// Intent is a created payment intent, ready for client-side confirmation.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount_minor"`
	Currency     string `json:"currency"`
}

// IntentService creates payment intents.
type IntentService interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, reference string) (Intent, error)
}

// HTTPIntentService talks to the payments API over HTTP.
type HTTPIntentService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPIntentService(baseURL, apiKey string) *HTTPIntentService {
	return &HTTPIntentService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPIntentService) CreateIntent(ctx context.Context, amountMinor int64, currency string, reference string) (Intent, error) {
	if amountMinor <= 0 {
		return Intent{}, dErrors.New(dErrors.CodeInvalidInput, "payment amount must be positive")
	}

	body, err := json.Marshal(map[string]any{
		"amount_minor": amountMinor,
		"currency":     currency,
		"reference":    reference,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/payment-intents", bytes.NewReader(body))
	if err != nil {
		return Intent{}, fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Intent{}, dErrors.Newf(dErrors.CodeInternal, "payments API returned status %d", resp.StatusCode)
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return Intent{}, fmt.Errorf("decode intent response: %w", err)
	}
	return intent, nil
}
