package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ms-registration/internal/config"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/retry"
)

// Connector talks to the spreadsheet web-app that organizers use as their
// system of record. Writes are best-effort: callers log the returned error
// and move on, the HTTP response never depends on a successful write.
type Connector struct {
	client *http.Client
	url    string
	policy retry.Policy
	logger *logger.Logger
}

func NewConnector(client *http.Client, cfg config.LedgerConfig, log *logger.Logger) *Connector {
	return &Connector{
		client: client,
		url:    cfg.URL,
		policy: retry.Policy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.Delay},
		logger: log,
	}
}

// Upsert sends the full registration record. Transport errors and non-2xx
// responses are retried with the bounded policy; after exhaustion the last
// error is logged and returned.
func (c *Connector) Upsert(ctx context.Context, rec *models.Registration) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode ledger record: %w", err)
	}

	err = c.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return retry.Stop(fmt.Errorf("failed to create ledger request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("ledger request failed: %w", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("ledger returned status %d", resp.StatusCode)
		}
		return nil
	})

	if err != nil {
		c.logger.Error("LEDGER", fmt.Sprintf("Upsert for %s failed after %d attempts: %v", rec.ReferenceID, c.policy.MaxAttempts, err))
		return err
	}

	c.logger.LogLedger("UPSERT", rec.ReferenceID, fmt.Sprintf("Record written with status %s", rec.Status))
	return nil
}

// FindByReference recovers the previously recorded registration so the
// reconciler can notify the payer. A missing record is (nil, nil), meaning
// "cannot notify", not a failure.
func (c *Connector) FindByReference(ctx context.Context, referenceID string) (*models.Registration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?ref="+referenceID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger lookup request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Warn("LEDGER", fmt.Sprintf("No record found for reference %s", referenceID))
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ledger lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var rec models.Registration
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode ledger record: %w", err)
	}
	if rec.ReferenceID == "" {
		return nil, nil
	}

	return &rec, nil
}
