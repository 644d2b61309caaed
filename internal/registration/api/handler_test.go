package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ms-registration/internal/config"
	"ms-registration/internal/gateway"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/registration"
	"ms-registration/internal/registration/api"
	regdb "ms-registration/internal/registration/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockGateway) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Upsert(ctx context.Context, rec *models.Registration) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockLedger) FindByReference(ctx context.Context, referenceID string) (*models.Registration, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendConfirmation(name, email string) error {
	args := m.Called(name, email)
	return args.Error(0)
}

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateRegistration(reg models.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

func (m *MockDBLayer) GetByReference(referenceID string) (*models.Registration, error) {
	args := m.Called(referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockDBLayer) GetByPaymentID(paymentID string) (*models.Registration, error) {
	args := m.Called(paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockDBLayer) UpdateRegistration(reg models.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

func (m *MockDBLayer) ListRegistrations() ([]models.Registration, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Registration), args.Error(1)
}

type MockStatusCache struct {
	mock.Mock
}

func (m *MockStatusCache) SetStatus(paymentID, status string) error {
	args := m.Called(paymentID, status)
	return args.Error(0)
}

func (m *MockStatusCache) GetStatus(paymentID string) (string, error) {
	args := m.Called(paymentID)
	return args.String(0), args.Error(1)
}

type handlerMocks struct {
	gateway *MockGateway
	ledger  *MockLedger
	notify  *MockNotifier
	db      *MockDBLayer
	cache   *MockStatusCache
}

func newTestHandler(t *testing.T) (*api.Handler, *handlerMocks) {
	t.Helper()
	m := &handlerMocks{
		gateway: new(MockGateway),
		ledger:  new(MockLedger),
		notify:  new(MockNotifier),
		db:      new(MockDBLayer),
		cache:   new(MockStatusCache),
	}
	log := logger.NewLogger()
	svc := registration.NewService(
		m.gateway, m.ledger, m.notify, m.db, m.cache, nil,
		config.PaymentConfig{Amount: 12.99, Description: "Inscrição - Grupo de Corredores"},
		"",
		log,
	)
	return api.NewHandler(svc, log), m
}

func TestProcessPaymentReturnsQRPayload(t *testing.T) {
	handler, m := newTestHandler(t)

	m.gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(&models.Payment{
		ID:     101,
		Status: "pending",
		PointOfInteraction: models.PointOfInteraction{
			TransactionData: models.TransactionData{
				QRCode:       "00020126pixcopypaste",
				QRCodeBase64: "aW1hZ2U=",
				TicketURL:    "https://gateway.example/ticket/1",
			},
		},
	}, nil)
	m.ledger.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	m.db.On("CreateRegistration", mock.Anything).Return(nil)
	m.cache.On("SetStatus", mock.Anything, mock.Anything).Return(nil)

	body := `{"email":"ana@example.com","payerFirstName":"Ana","payerLastName":"Souza","identificationType":"CPF","identificationNumber":"12345678900"}`
	req := httptest.NewRequest(http.MethodPost, "/process_payment", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ProcessPayment(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payment models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payment))
	assert.NotEmpty(t, payment.PointOfInteraction.TransactionData.QRCode)
	assert.NotEmpty(t, payment.PointOfInteraction.TransactionData.QRCodeBase64)
}

func TestProcessPaymentGatewayFailureIsNeverSilent(t *testing.T) {
	handler, m := newTestHandler(t)

	m.gateway.On("CreatePayment", mock.Anything, mock.Anything).
		Return(nil, &gateway.GatewayError{Status: 500, Message: "internal"})

	body := `{"email":"ana@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/process_payment", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ProcessPayment(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestProcessPaymentRejectsInvalidBody(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/process_payment", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.ProcessPayment(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookWithoutPaymentIDSkipsGateway(t *testing.T) {
	handler, m := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"action":"ping"}`))
	rec := httptest.NewRecorder()

	handler.Webhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No payment id", rec.Body.String())
	m.gateway.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
}

func TestWebhookAnswers500OnReconcileFailure(t *testing.T) {
	handler, m := newTestHandler(t)

	m.gateway.On("GetPayment", mock.Anything, "77").Return(nil, gateway.ErrPaymentNotFound)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"data":{"id":"77"}}`))
	rec := httptest.NewRecorder()

	handler.Webhook(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Erro", strings.TrimSpace(rec.Body.String()))
}

func TestWebhookAcknowledgesHandledDelivery(t *testing.T) {
	handler, m := newTestHandler(t)

	pending := &models.Registration{
		ReferenceID: "ref-1",
		FirstName:   "Ana",
		Email:       "ana@example.com",
		Status:      models.RegistrationPending,
	}

	m.gateway.On("GetPayment", mock.Anything, "88").Return(&models.Payment{
		ID:                88,
		Status:            "approved",
		ExternalReference: "ref-1",
		TransactionAmount: 12.99,
	}, nil)
	m.cache.On("SetStatus", "88", "approved").Return(nil)
	m.ledger.On("FindByReference", mock.Anything, "ref-1").Return(pending, nil)
	m.notify.On("SendConfirmation", "Ana", "ana@example.com").Return(nil)
	m.ledger.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	m.db.On("GetByReference", "ref-1").Return(pending, nil)
	m.db.On("UpdateRegistration", mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"data":{"id":"88"}}`))
	rec := httptest.NewRecorder()

	handler.Webhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	m.notify.AssertExpectations(t)
}

func TestPaymentStatusUnknownPayment(t *testing.T) {
	handler, m := newTestHandler(t)

	m.cache.On("GetStatus", "999").Return("", nil)
	m.db.On("GetByPaymentID", "999").Return(nil, regdb.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/status-pagamento?payment_id=999", nil)
	rec := httptest.NewRecorder()

	handler.PaymentStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "não encontrado", resp.Status)
}

func TestPaymentStatusFound(t *testing.T) {
	handler, m := newTestHandler(t)

	m.cache.On("GetStatus", "101").Return("approved", nil)

	req := httptest.NewRequest(http.MethodGet, "/status-pagamento?payment_id=101", nil)
	rec := httptest.NewRecorder()

	handler.PaymentStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp.Status)
}

func TestListRegistrations(t *testing.T) {
	handler, m := newTestHandler(t)

	m.db.On("ListRegistrations").Return([]models.Registration{
		{ReferenceID: "ref-1", Status: models.RegistrationConfirmed},
		{ReferenceID: "ref-2", Status: models.RegistrationPending},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/registrations", nil)
	rec := httptest.NewRecorder()

	handler.ListRegistrations(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var regs []models.Registration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regs))
	assert.Len(t, regs, 2)
}

func TestListRegistrationsFailure(t *testing.T) {
	handler, m := newTestHandler(t)

	m.db.On("ListRegistrations").Return(nil, errors.New("db down"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/registrations", nil)
	rec := httptest.NewRecorder()

	handler.ListRegistrations(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
