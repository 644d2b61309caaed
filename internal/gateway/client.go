package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-registration/internal/config"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/retry"

	"github.com/google/uuid"
)

// ErrPaymentNotFound is returned when the gateway keeps reporting 404 after
// the bounded poll. Webhook deliveries can arrive before the payment record
// is visible on the read path, so a 404 is retried before giving up.
var ErrPaymentNotFound = errors.New("gateway: payment not found")

var errNotVisible = errors.New("gateway: payment not yet visible")

// GatewayError is any non-2xx response from the payment API other than the
// retryable 404 on the read path.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

var confirmedStatuses = map[string]bool{
	"approved": true,
	"paid":     true,
	"success":  true,
}

// IsConfirmed reports whether a gateway payment status counts as confirmed.
// The match is case-sensitive.
func IsConfirmed(status string) bool {
	return confirmedStatuses[status]
}

// Client wraps the payment gateway's REST API.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	poll    retry.Policy
	logger  *logger.Logger
}

func NewClient(client *http.Client, cfg config.GatewayConfig, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL != "" && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		client:  client,
		baseURL: baseURL,
		token:   cfg.AccessToken,
		poll:    retry.Policy{MaxAttempts: cfg.PollAttempts, Delay: cfg.PollDelay},
		logger:  log,
	}
}

// CreatePayment creates a PIX payment. Every call sends a fresh idempotency
// key so a retried client-side submission never double-charges.
func (c *Client) CreatePayment(ctx context.Context, payReq models.PaymentRequest) (*models.Payment, error) {
	body, err := json.Marshal(payReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	c.logger.LogPayment("CREATE", payReq.ExternalReference, fmt.Sprintf("Creating PIX payment for %.2f", payReq.TransactionAmount))

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("GATEWAY", fmt.Sprintf("Payment creation request failed: %v", err))
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := readError(resp)
		c.logger.Error("GATEWAY", fmt.Sprintf("Payment creation failed: %v", gwErr))
		return nil, gwErr
	}

	var payment models.Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	c.logger.LogPayment("CREATE", payReq.ExternalReference, fmt.Sprintf("Payment %d created with status %s", payment.ID, payment.Status))
	return &payment, nil
}

// GetPayment fetches a payment by ID, retrying while the gateway reports
// 404. After the poll is exhausted it returns ErrPaymentNotFound; any other
// non-2xx response fails immediately with a GatewayError.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment models.Payment

	err := c.poll.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+paymentID, nil)
		if err != nil {
			return retry.Stop(fmt.Errorf("failed to create payment lookup request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.Stop(fmt.Errorf("gateway request failed: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			c.logger.Warn("GATEWAY", fmt.Sprintf("Payment %s not yet visible, retrying", paymentID))
			return errNotVisible
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return retry.Stop(readError(resp))
		}

		if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
			return retry.Stop(fmt.Errorf("failed to decode payment response: %w", err))
		}
		return nil
	})

	if errors.Is(err, errNotVisible) {
		c.logger.Error("GATEWAY", fmt.Sprintf("Payment %s not found after %d attempts", paymentID, c.poll.MaxAttempts))
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	c.logger.LogWebhook(paymentID, fmt.Sprintf("Fetched payment with status %s", payment.Status))
	return &payment, nil
}

func readError(resp *http.Response) *GatewayError {
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	message := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		message = apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
	}
	if message == "" {
		message = string(body)
	}

	return &GatewayError{Status: resp.StatusCode, Message: message}
}
