package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PaystackClient talks to the Paystack transaction API
type PaystackClient struct {
	httpClient  *http.Client
	baseURL     string
	secretKey   string
	callbackURL string
}

// NewPaystackClient creates a new Paystack API client
func NewPaystackClient(baseURL, secretKey, callbackURL string) *PaystackClient {
	return &PaystackClient{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		baseURL:     baseURL,
		secretKey:   secretKey,
		callbackURL: callbackURL,
	}
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeResult is the gateway's answer to a new transaction
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResult carries the settled state of a transaction
type VerifyResult struct {
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	GatewayResponse string `json:"gateway_response"`
}

// Initialize starts a transaction under our reference and returns the
// checkout link.
func (c *PaystackClient) Initialize(ctx context.Context, email string, amount int64, reference string) (*InitializeResult, error) {
	payload, err := json.Marshal(initializeRequest{
		Email:       email,
		Amount:      amount,
		Reference:   reference,
		CallbackURL: c.callbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result InitializeResult
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(payload), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Verify fetches the settled state of a transaction by reference
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var result VerifyResult
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *PaystackClient) do(ctx context.Context, method, path string, body *bytes.Reader, out interface{}) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if !envelope.Status {
		return fmt.Errorf("%w: %s", ErrGatewayDeclined, envelope.Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode gateway data: %w", err)
	}
	return nil
}
