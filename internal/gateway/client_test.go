package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-registration/internal/config"
	"ms-registration/internal/gateway"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, attempts int) *gateway.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.GatewayConfig{
		BaseURL:      server.URL,
		AccessToken:  "test-token",
		PollAttempts: attempts,
		PollDelay:    time.Millisecond,
	}
	return gateway.NewClient(server.Client(), cfg, logger.NewLogger())
}

func paymentJSON(id int64, status, ref string) []byte {
	payment := models.Payment{
		ID:                id,
		Status:            status,
		ExternalReference: ref,
		TransactionAmount: 12.99,
		Payer: models.Payer{
			Email:     "corredor@example.com",
			FirstName: "Ana",
			LastName:  "Souza",
		},
		PointOfInteraction: models.PointOfInteraction{
			TransactionData: models.TransactionData{
				QRCode:       "00020126pixcopypaste",
				QRCodeBase64: "aW1hZ2U=",
				TicketURL:    "https://gateway.example/ticket/1",
			},
		},
	}
	data, _ := json.Marshal(payment)
	return data
}

func TestCreatePaymentSendsFreshIdempotencyKey(t *testing.T) {
	var keys []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		keys = append(keys, r.Header.Get("X-Idempotency-Key"))

		var req models.PaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pix", req.PaymentMethodID)

		w.WriteHeader(http.StatusCreated)
		w.Write(paymentJSON(101, "pending", req.ExternalReference))
	}, 1)

	req := models.PaymentRequest{
		TransactionAmount: 12.99,
		PaymentMethodID:   "pix",
		ExternalReference: "ref-1",
	}

	payment, err := client.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(101), payment.ID)
	assert.NotEmpty(t, payment.PointOfInteraction.TransactionData.QRCode)

	_, err = client.CreatePayment(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.NotEqual(t, keys[0], keys[1], "each submission must carry its own idempotency key")
}

func TestCreatePaymentReturnsGatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid payer"}`))
	}, 1)

	payment, err := client.CreatePayment(context.Background(), models.PaymentRequest{})
	assert.Nil(t, payment)

	var gwErr *gateway.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.Status)
	assert.Equal(t, "invalid payer", gwErr.Message)
}

func TestGetPaymentRetriesUntilVisible(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(paymentJSON(202, "approved", "ref-2"))
	}, 5)

	payment, err := client.GetPayment(context.Background(), "202")
	require.NoError(t, err)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, 3, attempts, "must stop as soon as the payment is visible")
}

func TestGetPaymentExhaustsRetries(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}, 4)

	payment, err := client.GetPayment(context.Background(), "303")
	assert.Nil(t, payment)
	assert.ErrorIs(t, err, gateway.ErrPaymentNotFound)
	assert.Equal(t, 4, attempts)
}

func TestGetPaymentFailsFastOnServerError(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}, 5)

	_, err := client.GetPayment(context.Background(), "404")

	var gwErr *gateway.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
	assert.Equal(t, 1, attempts, "non-404 failures must not be retried")
}

func TestIsConfirmed(t *testing.T) {
	assert.True(t, gateway.IsConfirmed("approved"))
	assert.True(t, gateway.IsConfirmed("paid"))
	assert.True(t, gateway.IsConfirmed("success"))
	assert.False(t, gateway.IsConfirmed("pending"))
	assert.False(t, gateway.IsConfirmed("Approved"), "status match is case-sensitive")
}
