package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swiftcart/order-system/payment-service/application"
)

// PaymentHandlers contains payment HTTP handlers. POST /payments is the
// synchronous charge endpoint the order service calls through its guarded
// client.
type PaymentHandlers struct {
	processPayment *application.ProcessPayment
}

// NewPaymentHandlers creates new payment handlers
func NewPaymentHandlers(processPayment *application.ProcessPayment) *PaymentHandlers {
	return &PaymentHandlers{processPayment: processPayment}
}

// ProcessPayment handles synchronous charge requests
func (h *PaymentHandlers) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var cmd application.ProcessPaymentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.processPayment.Execute(r.Context(), &cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers payment routes
func (h *PaymentHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/payments", h.ProcessPayment)
}
