package models

// Identification is the payer document (CPF, CNPJ etc).
type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type Payer struct {
	Email          string         `json:"email"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Identification Identification `json:"identification"`
}

// TransactionData carries the PIX QR payload returned by the gateway.
type TransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url"`
}

type PointOfInteraction struct {
	Type            string          `json:"type,omitempty"`
	TransactionData TransactionData `json:"transaction_data"`
}

// PaymentRequest is the body sent to the gateway's payment creation endpoint.
type PaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Payer             Payer   `json:"payer"`
	ExternalReference string  `json:"external_reference"`
	NotificationURL   string  `json:"notification_url,omitempty"`
}

// Payment is the gateway's payment resource. Only the fields the service
// reads are mapped; the gateway owns the entity.
type Payment struct {
	ID                 int64              `json:"id"`
	Status             string             `json:"status"`
	StatusDetail       string             `json:"status_detail,omitempty"`
	ExternalReference  string             `json:"external_reference"`
	TransactionAmount  float64            `json:"transaction_amount"`
	Description        string             `json:"description,omitempty"`
	Payer              Payer              `json:"payer"`
	PointOfInteraction PointOfInteraction `json:"point_of_interaction"`
	DateCreated        string             `json:"date_created,omitempty"`
}
