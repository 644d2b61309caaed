package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/registration"
)

type Handler struct {
	Service *registration.Service
	Logger  *logger.Logger
}

func NewHandler(service *registration.Service, log *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

// ProcessPayment handles the registration form submission. The response is
// either the gateway payment object (carrying the PIX QR payload) or a 500
// with a non-empty error message, never an empty body.
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "ProcessPayment: received request")

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ProcessPayment: failed to decode request body: %v", err))
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if req.Email == "" {
		h.Logger.Warn("API", "ProcessPayment: missing payer email")
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "email is required"})
		return
	}

	payment, err := h.Service.Checkout(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ProcessPayment: payment creation failed: %v", err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	h.Logger.Info("API", fmt.Sprintf("ProcessPayment: payment %d created", payment.ID))
	writeJSON(w, http.StatusOK, payment)
}

// Webhook receives the gateway's asynchronous payment notifications.
// Handled paths always answer 200 so the gateway stops redelivering;
// reconciliation errors answer 500 so it redelivers.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to read webhook payload: %v", err))
		http.Error(w, "Erro", http.StatusInternalServerError)
		return
	}

	paymentID := registration.ExtractPaymentID(payload)
	if paymentID == "" {
		h.Logger.Warn("WEBHOOK", "Notification without a payment id, acknowledging")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("No payment id"))
		return
	}

	if err := h.Service.Reconcile(r.Context(), paymentID); err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Reconciliation for payment %s failed: %v", paymentID, err))
		http.Error(w, "Erro", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// PaymentStatus answers the front-end's polling for a payment's status.
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("payment_id")
	h.Logger.Info("API", fmt.Sprintf("PaymentStatus: payment_id=%s", paymentID))

	if paymentID == "" {
		writeJSON(w, http.StatusOK, models.StatusResponse{Status: "não encontrado"})
		return
	}

	status, err := h.Service.StatusByPaymentID(paymentID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("PaymentStatus: lookup failed for %s: %v", paymentID, err))
		writeJSON(w, http.StatusOK, models.StatusResponse{Status: "não encontrado"})
		return
	}

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: status})
}

// ListRegistrations returns the organizer view of all registrations.
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.Service.ListRegistrations()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRegistrations: %v", err))
		http.Error(w, "Failed to list registrations: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, regs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
