package paystack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/config"
	"github.com/itfy/evoting-backend/internal/infrastructure/paystack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *paystack.Client {
	return paystack.NewClient(config.GatewayConfig{
		BaseURL:       serverURL,
		SecretKey:     "sk_test_secret",
		WebhookSecret: "whsec_test",
		ConnTimeout:   5 * time.Second,
	})
}

func TestClient_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var gotAuth, gotPath string
		var gotBody map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": true,
				"message": "Authorization URL created",
				"data": {
					"authorization_url": "https://checkout.paystack.com/abc123",
					"access_code": "abc123",
					"reference": "evp_test"
				}
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		resp, err := client.Initialize(ctx, application.InitializeChargeRequest{
			Email:     "voter@example.com",
			Amount:    8000,
			Reference: "evp_test",
		})
		require.NoError(t, err)

		assert.Equal(t, "Bearer sk_test_secret", gotAuth)
		assert.Equal(t, "/transaction/initialize", gotPath)
		assert.Equal(t, "voter@example.com", gotBody["email"])
		assert.Equal(t, float64(8000), gotBody["amount"])

		assert.Equal(t, "https://checkout.paystack.com/abc123", resp.AuthorizationURL)
		assert.Equal(t, "abc123", resp.AccessCode)
		assert.Equal(t, "evp_test", resp.Reference)
	})

	t.Run("gateway rejection surfaces as a gateway error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Initialize(ctx, application.InitializeChargeRequest{
			Email:     "voter@example.com",
			Amount:    8000,
			Reference: "evp_test",
		})
		require.Error(t, err)

		gwErr, ok := paystack.IsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
		assert.Equal(t, "Invalid key", gwErr.Message)
		assert.False(t, gwErr.IsRetryable())
	})

	t.Run("server errors are retryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`upstream exploded`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Initialize(ctx, application.InitializeChargeRequest{
			Email:     "voter@example.com",
			Amount:    8000,
			Reference: "evp_test",
		})
		require.Error(t, err)

		gwErr, ok := paystack.IsGatewayError(err)
		require.True(t, ok)
		assert.True(t, gwErr.IsRetryable())
	})
}

func TestClient_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("successful charge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/verify/evp_test", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": true,
				"message": "Verification successful",
				"data": {
					"id": 4099260516,
					"status": "success",
					"reference": "evp_test",
					"amount": 8000,
					"currency": "NGN",
					"channel": "card",
					"fees": 120,
					"gateway_response": "Successful",
					"paid_at": "2026-08-30T10:00:00Z"
				}
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Verify(ctx, "evp_test")
		require.NoError(t, err)

		assert.Equal(t, application.VerifyStatusSuccess, result.Status)
		assert.Equal(t, "evp_test", result.Reference)
		assert.Equal(t, int64(8000), result.Amount)
		assert.Equal(t, int64(4099260516), result.TransactionID)
		require.NotNil(t, result.PaidAt)
	})

	t.Run("abandoned charge maps to failed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": true,
				"message": "Verification successful",
				"data": {"status": "abandoned", "reference": "evp_test", "gateway_response": "The transaction was not completed"}
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Verify(ctx, "evp_test")
		require.NoError(t, err)
		assert.Equal(t, application.VerifyStatusFailed, result.Status)
	})

	t.Run("in-flight charge maps to pending", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": true,
				"message": "Verification successful",
				"data": {"status": "ongoing", "reference": "evp_test"}
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Verify(ctx, "evp_test")
		require.NoError(t, err)
		assert.Equal(t, application.VerifyStatusPending, result.Status)
	})

	t.Run("unknown reference is a failed outcome, not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status": false, "message": "Transaction reference not found"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Verify(ctx, "evp_ghost")
		require.NoError(t, err)

		assert.Equal(t, application.VerifyStatusFailed, result.Status)
		assert.Equal(t, "evp_ghost", result.Reference)
	})
}
