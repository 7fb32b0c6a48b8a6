package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/product-service/application"
	"github.com/swiftcart/order-system/shared/models"
)

// AvailabilityResponse reports whether a requested quantity is in stock
type AvailabilityResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

// ProductHandlers contains product HTTP handlers
type ProductHandlers struct {
	catalog *application.ProductCatalog
}

// NewProductHandlers creates new product handlers
func NewProductHandlers(catalog *application.ProductCatalog) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

// GetProduct handles product retrieval requests
func (h *ProductHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	response, err := h.catalog.GetProduct(r.Context(), models.ID(productID))
	if err != nil {
		if errors.Is(err, application.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CheckAvailability handles stock availability requests
func (h *ProductHandlers) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity < 1 {
		http.Error(w, "quantity must be a positive integer", http.StatusBadRequest)
		return
	}

	available, err := h.catalog.CheckInventory(r.Context(), models.ID(productID), quantity)
	if err != nil {
		if errors.Is(err, application.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AvailabilityResponse{
		ProductID: productID,
		Quantity:  quantity,
		Available: available,
	})
}

// RegisterRoutes registers product routes
func (h *ProductHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/{id}", h.GetProduct)
		r.Get("/{id}/availability", h.CheckAvailability)
	})
}
