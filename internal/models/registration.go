package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RegistrationPending   = "pending"
	RegistrationConfirmed = "confirmed"
)

// CheckoutRequest is the payload posted by the registration form.
type CheckoutRequest struct {
	Email                string  `json:"email"`
	PayerFirstName       string  `json:"payerFirstName"`
	PayerLastName        string  `json:"payerLastName"`
	IdentificationType   string  `json:"identificationType"`
	IdentificationNumber string  `json:"identificationNumber"`
	Valor                float64 `json:"valor,omitempty"`
	Evento               string  `json:"evento,omitempty"`
	Telefone             string  `json:"telefone,omitempty"`
	Cidade               string  `json:"cidade,omitempty"`
	Equipe               string  `json:"equipe,omitempty"`
}

// Registration is the pending/confirmed record keyed by reference ID.
// The reference ID is generated once at checkout and is the only
// correlation key between the gateway payment and this record.
type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ReferenceID          string    `bun:"reference_id,pk" json:"reference_id"`
	FirstName            string    `bun:"first_name" json:"first_name"`
	LastName             string    `bun:"last_name" json:"last_name"`
	Email                string    `bun:"email" json:"email"`
	IdentificationType   string    `bun:"identification_type" json:"identification_type"`
	IdentificationNumber string    `bun:"identification_number" json:"identification_number"`
	Amount               float64   `bun:"amount" json:"amount"`
	Event                string    `bun:"event,nullzero" json:"event,omitempty"`
	Phone                string    `bun:"phone,nullzero" json:"phone,omitempty"`
	City                 string    `bun:"city,nullzero" json:"city,omitempty"`
	Team                 string    `bun:"team,nullzero" json:"team,omitempty"`
	Status               string    `bun:"status" json:"status"`
	GatewayPaymentID     string    `bun:"gateway_payment_id,nullzero" json:"gateway_payment_id,omitempty"`
	CreatedAt            time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt            time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// RegistrationEvent is the message published to Kafka on lifecycle changes.
type RegistrationEvent struct {
	Type             string    `json:"type"`
	ReferenceID      string    `json:"reference_id"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	Status           string    `json:"status"`
	Amount           float64   `json:"amount"`
	Timestamp        time.Time `json:"timestamp"`
}
