package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-registration/internal/config"
	"ms-registration/internal/ledger"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnector(t *testing.T, handler http.HandlerFunc, attempts int) *ledger.Connector {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.LedgerConfig{
		URL:         server.URL,
		MaxAttempts: attempts,
		Delay:       time.Millisecond,
	}
	return ledger.NewConnector(server.Client(), cfg, logger.NewLogger())
}

func TestUpsertRetriesTransientFailures(t *testing.T) {
	attempts := 0
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		var rec models.Registration
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		assert.Equal(t, "ref-1", rec.ReferenceID)
		w.WriteHeader(http.StatusOK)
	}, 3)

	err := connector.Upsert(context.Background(), &models.Registration{
		ReferenceID: "ref-1",
		Status:      models.RegistrationPending,
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestUpsertReturnsErrorAfterExhaustion(t *testing.T) {
	attempts := 0
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}, 3)

	err := connector.Upsert(context.Background(), &models.Registration{ReferenceID: "ref-2"})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestFindByReferenceReturnsRecord(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ref-3", r.URL.Query().Get("ref"))
		json.NewEncoder(w).Encode(models.Registration{
			ReferenceID: "ref-3",
			FirstName:   "Ana",
			Email:       "ana@example.com",
			Phone:       "11 99999-0000",
			Status:      models.RegistrationPending,
		})
	}, 1)

	rec, err := connector.FindByReference(context.Background(), "ref-3")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "ana@example.com", rec.Email)
	assert.Equal(t, "11 99999-0000", rec.Phone)
}

func TestFindByReferenceMissingRecordIsNotAnError(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, 1)

	rec, err := connector.FindByReference(context.Background(), "unknown")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFindByReferenceEmptyBodyIsNotAnError(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, 1)

	rec, err := connector.FindByReference(context.Background(), "ref-4")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}
