package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studio/internal/domain"
)

// ErrAlreadyCaptured marks a capture attempt against a payment the gateway
// has already captured. Callers treat it as success.
var ErrAlreadyCaptured = errors.New("payment already captured")

// Gateway is the capture/refund contract the coordinator depends on.
type Gateway interface {
	Capture(ctx context.Context, paymentID string, amountMinor int64, currency string) error
	Refund(ctx context.Context, paymentID string, amountMinor int64) error
}

// RazorpayOptions configures the Razorpay client.
type RazorpayOptions struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	HTTPClient *http.Client
}

// Razorpay performs server-side capture and refund calls signed with Basic
// auth. Amounts are transmitted in minor currency units.
type Razorpay struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

type captureBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type refundBody struct {
	Amount int64  `json:"amount"`
	Speed  string `json:"speed"`
}

type gatewayResponse struct {
	Status string `json:"status"`
	Error  struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// NewRazorpay constructs the client, failing fast when the key pair is not
// configured so no unauthenticated call is ever attempted.
func NewRazorpay(opts RazorpayOptions) (*Razorpay, error) {
	if strings.TrimSpace(opts.KeyID) == "" || strings.TrimSpace(opts.KeySecret) == "" {
		return nil, domain.ErrPaymentKeysUnset
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	return &Razorpay{
		keyID:      strings.TrimSpace(opts.KeyID),
		keySecret:  strings.TrimSpace(opts.KeySecret),
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// Capture finalizes an authorized payment. Capturing a payment the gateway
// already captured returns ErrAlreadyCaptured.
func (r *Razorpay) Capture(ctx context.Context, paymentID string, amountMinor int64, currency string) error {
	resp, err := r.post(ctx, "/payments/"+paymentID+"/capture", captureBody{Amount: amountMinor, Currency: currency})
	if err != nil {
		return err
	}
	if resp.Status == "captured" {
		return nil
	}
	if isAlreadyCaptured(resp.Error.Description) {
		return ErrAlreadyCaptured
	}
	return fmt.Errorf("razorpay: capture %s: %s", paymentID, gatewayFailure(resp))
}

// Refund reverses the full authorized amount back to the payer.
func (r *Razorpay) Refund(ctx context.Context, paymentID string, amountMinor int64) error {
	resp, err := r.post(ctx, "/payments/"+paymentID+"/refund", refundBody{Amount: amountMinor, Speed: "normal"})
	if err != nil {
		return err
	}
	if resp.Status == "processed" || resp.Status == "created" || resp.Status == "pending" {
		return nil
	}
	return fmt.Errorf("razorpay: refund %s: %s", paymentID, gatewayFailure(resp))
}

func (r *Razorpay) post(ctx context.Context, path string, payload any) (*gatewayResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("razorpay: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("razorpay: create request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(r.keyID + ":" + r.keySecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: invoke: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("razorpay: read response: %w", err)
	}
	var resp gatewayResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("razorpay: decode response (status %d): %w", httpResp.StatusCode, err)
		}
	}
	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("razorpay: status %d: %s", httpResp.StatusCode, gatewayFailure(&resp))
	}
	return &resp, nil
}

func isAlreadyCaptured(description string) bool {
	lower := strings.ToLower(description)
	return strings.Contains(lower, "already") && strings.Contains(lower, "captured")
}

func gatewayFailure(resp *gatewayResponse) string {
	if resp.Error.Description != "" {
		return resp.Error.Description
	}
	if resp.Status != "" {
		return "unexpected status " + resp.Status
	}
	return "unknown gateway error"
}

var _ Gateway = (*Razorpay)(nil)
