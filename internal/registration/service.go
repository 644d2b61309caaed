package registration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ms-registration/internal/config"
	"ms-registration/internal/gateway"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/qr"

	"github.com/google/uuid"
)

type Gateway interface {
	CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
}

type Ledger interface {
	Upsert(ctx context.Context, rec *models.Registration) error
	FindByReference(ctx context.Context, referenceID string) (*models.Registration, error)
}

type Notifier interface {
	SendConfirmation(name, email string) error
}

type DBLayer interface {
	CreateRegistration(reg models.Registration) error
	GetByReference(referenceID string) (*models.Registration, error)
	GetByPaymentID(paymentID string) (*models.Registration, error)
	UpdateRegistration(reg models.Registration) error
	ListRegistrations() ([]models.Registration, error)
}

type StatusCache interface {
	SetStatus(paymentID, status string) error
	GetStatus(paymentID string) (string, error)
}

type EventPublisher interface {
	PublishRegistrationCreated(reg models.Registration) error
	PublishRegistrationConfirmed(reg models.Registration) error
}

type Service struct {
	Gateway Gateway
	Ledger  Ledger
	Notify  Notifier
	DB      DBLayer
	Cache   StatusCache
	Events  EventPublisher

	payment         config.PaymentConfig
	notificationURL string
	logger          *logger.Logger
}

func NewService(gw Gateway, ledger Ledger, notify Notifier, db DBLayer, cache StatusCache, events EventPublisher, payment config.PaymentConfig, notificationURL string, log *logger.Logger) *Service {
	return &Service{
		Gateway:         gw,
		Ledger:          ledger,
		Notify:          notify,
		DB:              db,
		Cache:           cache,
		Events:          events,
		payment:         payment,
		notificationURL: notificationURL,
		logger:          log,
	}
}

// ---------------- CHECKOUT ----------------

// Checkout creates the PIX payment and records the pending registration.
// Only the gateway call can fail the request: ledger, database, cache and
// event writes are side channels and their errors are logged and swallowed.
func (s *Service) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.Payment, error) {
	referenceID := uuid.NewString()

	amount := req.Valor
	if amount <= 0 {
		amount = s.payment.Amount
	}

	s.logger.LogPayment("CHECKOUT", referenceID, fmt.Sprintf("New registration for %s", req.Email))

	payment, err := s.Gateway.CreatePayment(ctx, models.PaymentRequest{
		TransactionAmount: amount,
		Description:       s.payment.Description,
		PaymentMethodID:   "pix",
		Payer: models.Payer{
			Email:     req.Email,
			FirstName: req.PayerFirstName,
			LastName:  req.PayerLastName,
			Identification: models.Identification{
				Type:   req.IdentificationType,
				Number: req.IdentificationNumber,
			},
		},
		ExternalReference: referenceID,
		NotificationURL:   s.notificationURL,
	})
	if err != nil {
		return nil, err
	}

	s.applyQRFallback(payment)

	reg := models.Registration{
		ReferenceID:          referenceID,
		FirstName:            req.PayerFirstName,
		LastName:             req.PayerLastName,
		Email:                req.Email,
		IdentificationType:   req.IdentificationType,
		IdentificationNumber: req.IdentificationNumber,
		Amount:               amount,
		Event:                req.Evento,
		Phone:                req.Telefone,
		City:                 req.Cidade,
		Team:                 req.Equipe,
		Status:               models.RegistrationPending,
		GatewayPaymentID:     strconv.FormatInt(payment.ID, 10),
		CreatedAt:            time.Now(),
	}

	if err := s.Ledger.Upsert(ctx, &reg); err != nil {
		s.logger.Warn("LEDGER", fmt.Sprintf("Pending record for %s not written: %v", referenceID, err))
	}
	if err := s.DB.CreateRegistration(reg); err != nil {
		s.logger.Error("DATABASE", fmt.Sprintf("Failed to store registration %s: %v", referenceID, err))
	}
	if err := s.Cache.SetStatus(reg.GatewayPaymentID, payment.Status); err != nil {
		s.logger.Warn("REDIS", fmt.Sprintf("Failed to cache status for payment %s: %v", reg.GatewayPaymentID, err))
	}
	if s.Events != nil {
		if err := s.Events.PublishRegistrationCreated(reg); err != nil {
			s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish created event for %s: %v", referenceID, err))
		}
	}

	return payment, nil
}

// applyQRFallback fills qr_code_base64 from the copy-paste code when the
// gateway omits the rendered image, so the front-end contract always holds.
func (s *Service) applyQRFallback(payment *models.Payment) {
	data := &payment.PointOfInteraction.TransactionData
	if data.QRCodeBase64 != "" || data.QRCode == "" {
		return
	}

	encoded, err := qr.EncodeBase64(data.QRCode)
	if err != nil {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Failed to render fallback QR image: %v", err))
		return
	}
	data.QRCodeBase64 = encoded
}

// ---------------- RECONCILIATION ----------------

// Reconcile re-fetches the authoritative payment status for a webhook
// delivery and, on confirmation, notifies the payer and flips the ledger
// record to confirmed. A returned error means the caller should answer 500
// so the gateway redelivers.
func (s *Service) Reconcile(ctx context.Context, paymentID string) error {
	payment, err := s.Gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if err := s.Cache.SetStatus(paymentID, payment.Status); err != nil {
		s.logger.Warn("REDIS", fmt.Sprintf("Failed to cache status for payment %s: %v", paymentID, err))
	}

	if !gateway.IsConfirmed(payment.Status) {
		s.logger.LogWebhook(paymentID, fmt.Sprintf("Status %s is not confirmed, leaving registration pending", payment.Status))
		return nil
	}

	referenceID := payment.ExternalReference
	s.logger.LogWebhook(paymentID, fmt.Sprintf("Payment confirmed for reference %s", referenceID))

	rec, err := s.Ledger.FindByReference(ctx, referenceID)
	if err != nil {
		s.logger.Error("LEDGER", fmt.Sprintf("Lookup for %s failed: %v", referenceID, err))
		rec = nil
	}
	if rec == nil {
		// Spreadsheet may have missed the pending write; the local mirror
		// shares the same correlation key.
		if local, dbErr := s.DB.GetByReference(referenceID); dbErr == nil {
			rec = local
		}
	}

	if rec != nil && rec.Email != "" {
		name := rec.FirstName
		if name == "" {
			name = payment.Payer.FirstName
		}
		if err := s.Notify.SendConfirmation(name, rec.Email); err != nil {
			s.logger.Error("EMAIL", fmt.Sprintf("Confirmation for %s not sent: %v", referenceID, err))
		}
	} else {
		s.logger.Warn("WEBHOOK", fmt.Sprintf("No pending record with an email for reference %s, cannot notify", referenceID))
	}

	merged := s.mergeConfirmed(rec, payment, paymentID)

	if err := s.Ledger.Upsert(ctx, &merged); err != nil {
		s.logger.Warn("LEDGER", fmt.Sprintf("Confirmed record for %s not written: %v", referenceID, err))
	}

	if _, dbErr := s.DB.GetByReference(merged.ReferenceID); dbErr == nil {
		if err := s.DB.UpdateRegistration(merged); err != nil {
			s.logger.Error("DATABASE", fmt.Sprintf("Failed to update registration %s: %v", merged.ReferenceID, err))
		}
	} else {
		if err := s.DB.CreateRegistration(merged); err != nil {
			s.logger.Error("DATABASE", fmt.Sprintf("Failed to store registration %s: %v", merged.ReferenceID, err))
		}
	}

	if s.Events != nil {
		if err := s.Events.PublishRegistrationConfirmed(merged); err != nil {
			s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish confirmed event for %s: %v", referenceID, err))
		}
	}

	return nil
}

// mergeConfirmed overlays the gateway's authoritative payer and amount
// fields onto the previously captured record, keeping fields the gateway
// does not return (phone, city, team, event).
func (s *Service) mergeConfirmed(rec *models.Registration, payment *models.Payment, paymentID string) models.Registration {
	merged := models.Registration{
		ReferenceID: payment.ExternalReference,
		Status:      models.RegistrationConfirmed,
		CreatedAt:   time.Now(),
	}
	if rec != nil {
		merged = *rec
		merged.Status = models.RegistrationConfirmed
	}

	if payment.Payer.FirstName != "" {
		merged.FirstName = payment.Payer.FirstName
	}
	if payment.Payer.LastName != "" {
		merged.LastName = payment.Payer.LastName
	}
	if payment.Payer.Email != "" {
		merged.Email = payment.Payer.Email
	}
	if payment.Payer.Identification.Type != "" {
		merged.IdentificationType = payment.Payer.Identification.Type
	}
	if payment.Payer.Identification.Number != "" {
		merged.IdentificationNumber = payment.Payer.Identification.Number
	}
	if payment.TransactionAmount > 0 {
		merged.Amount = payment.TransactionAmount
	}
	merged.GatewayPaymentID = paymentID
	merged.UpdatedAt = time.Now()

	return merged
}

// ---------------- STATUS ----------------

// StatusByPaymentID answers the front-end's payment status poll from the
// cache first, then the local store.
func (s *Service) StatusByPaymentID(paymentID string) (string, error) {
	if status, err := s.Cache.GetStatus(paymentID); err == nil && status != "" {
		return status, nil
	} else if err != nil {
		s.logger.Warn("REDIS", fmt.Sprintf("Status cache lookup for %s failed: %v", paymentID, err))
	}

	reg, err := s.DB.GetByPaymentID(paymentID)
	if err != nil {
		return "", err
	}
	return reg.Status, nil
}

// ListRegistrations exposes the local mirror for the organizer view.
func (s *Service) ListRegistrations() ([]models.Registration, error) {
	return s.DB.ListRegistrations()
}
