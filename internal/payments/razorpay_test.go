package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/domain"
)

func newTestRazorpay(t *testing.T) *Razorpay {
	t.Helper()
	client, err := NewRazorpay(RazorpayOptions{
		KeyID:     "rzp_test_key",
		KeySecret: "secret",
		BaseURL:   "https://api.razorpay.test/v1",
	})
	require.NoError(t, err)
	return client
}

func TestNewRazorpayRequiresKeys(t *testing.T) {
	_, err := NewRazorpay(RazorpayOptions{KeyID: "only-id"})
	assert.ErrorIs(t, err, domain.ErrPaymentKeysUnset)
}

func TestCaptureSendsBasicAuthAndMinorUnits(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.razorpay.test/v1/payments/pay_123/capture",
		func(req *http.Request) (*http.Response, error) {
			user, pass, ok := req.BasicAuth()
			require.True(t, ok, "capture must be Basic-authenticated")
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, "secret", pass)

			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, float64(2800), body["amount"])
			assert.Equal(t, "INR", body["currency"])

			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"status": "captured"})
		})

	err := newTestRazorpay(t).Capture(context.Background(), "pay_123", 2800, "INR")
	assert.NoError(t, err)
}

func TestCaptureAlreadyCaptured(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.razorpay.test/v1/payments/pay_123/capture",
		httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{
			"error": map[string]string{
				"code":        "BAD_REQUEST_ERROR",
				"description": "This payment has already been captured",
			},
		}))

	err := newTestRazorpay(t).Capture(context.Background(), "pay_123", 2800, "INR")
	assert.ErrorIs(t, err, ErrAlreadyCaptured)
}

func TestCaptureGatewayRejection(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.razorpay.test/v1/payments/pay_123/capture",
		httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{
			"error": map[string]string{
				"code":        "BAD_REQUEST_ERROR",
				"description": "Capture amount does not match authorized amount",
			},
		}))

	err := newTestRazorpay(t).Capture(context.Background(), "pay_123", 2800, "INR")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAlreadyCaptured))
	assert.Contains(t, err.Error(), "Capture amount")
}

func TestRefundAcceptedStatuses(t *testing.T) {
	for _, status := range []string{"processed", "created", "pending"} {
		t.Run(status, func(t *testing.T) {
			httpmock.Activate()
			defer httpmock.DeactivateAndReset()

			httpmock.RegisterResponder(http.MethodPost, "https://api.razorpay.test/v1/payments/pay_123/refund",
				httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{"status": status}))

			err := newTestRazorpay(t).Refund(context.Background(), "pay_123", 2800)
			assert.NoError(t, err)
		})
	}
}

func TestRefundFailureSurfacesDescription(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.razorpay.test/v1/payments/pay_123/refund",
		httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{
			"error": map[string]string{
				"code":        "BAD_REQUEST_ERROR",
				"description": "The payment is not captured yet",
			},
		}))

	err := newTestRazorpay(t).Refund(context.Background(), "pay_123", 2800)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not captured")
}

func TestServerErrorIsTransportError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.razorpay.test/v1/payments/pay_123/capture",
		httpmock.NewStringResponder(http.StatusBadGateway, ""))

	err := newTestRazorpay(t).Capture(context.Background(), "pay_123", 2800, "INR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
