package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/models"
)

// httpDo issues the request with the correlation id attached and rejects
// non-2xx responses.
func httpDo(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	if id, ok := correlation.FromContext(ctx); ok {
		req.Header.Set(correlation.HTTPHeader, id.String())
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("%s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// HTTPProductGateway calls the product service over HTTP
type HTTPProductGateway struct {
	baseURL string
	client  *http.Client
}

var _ domain.ProductGateway = (*HTTPProductGateway)(nil)

// NewHTTPProductGateway creates a product gateway against baseURL
func NewHTTPProductGateway(baseURL string) *HTTPProductGateway {
	return &HTTPProductGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// GetProduct implements domain.ProductGateway
func (g *HTTPProductGateway) GetProduct(ctx context.Context, productID models.ID) (*domain.ProductDetails, error) {
	url := fmt.Sprintf("%s/products/%s", g.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build product request")
	}

	body, err := httpDo(ctx, g.client, req)
	if err != nil {
		return nil, errors.Wrap(err, "product service call failed")
	}

	var payload struct {
		ProductID string `json:"product_id"`
		Name      string `json:"name"`
		Price     int64  `json:"price"`
		Currency  string `json:"currency"`
		Stock     int    `json:"stock"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode product response")
	}

	price, err := models.NewMoney(payload.Price, payload.Currency)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product price")
	}

	return &domain.ProductDetails{
		ProductID: models.ID(payload.ProductID),
		Name:      payload.Name,
		Price:     price,
		Stock:     payload.Stock,
	}, nil
}

// CheckInventory implements domain.ProductGateway
func (g *HTTPProductGateway) CheckInventory(ctx context.Context, productID models.ID, quantity int) (bool, error) {
	url := fmt.Sprintf("%s/products/%s/availability?quantity=%d", g.baseURL, productID, quantity)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to build availability request")
	}

	body, err := httpDo(ctx, g.client, req)
	if err != nil {
		return false, errors.Wrap(err, "product service call failed")
	}

	var payload struct {
		Available bool `json:"available"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, errors.Wrap(err, "failed to decode availability response")
	}
	return payload.Available, nil
}

// HTTPPaymentGateway calls the payment service over HTTP. Wrap it in the
// guarded client before handing it to the orchestration.
type HTTPPaymentGateway struct {
	baseURL string
	client  *http.Client
}

var _ domain.PaymentGateway = (*HTTPPaymentGateway)(nil)

// NewHTTPPaymentGateway creates a payment gateway against baseURL
func NewHTTPPaymentGateway(baseURL string) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		baseURL: baseURL,
		// The guarded client owns the call deadline through context.
		client: &http.Client{},
	}
}

// ProcessPayment implements domain.PaymentGateway
func (g *HTTPPaymentGateway) ProcessPayment(ctx context.Context, orderID models.ID, amount models.Money) (*domain.PaymentResult, error) {
	request := map[string]interface{}{
		"order_id": orderID.String(),
		"amount":   amount.Amount,
		"currency": amount.Currency,
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payment request")
	}

	url := fmt.Sprintf("%s/payments", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build payment request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := httpDo(ctx, g.client, req)
	if err != nil {
		return nil, errors.Wrap(err, "payment service call failed")
	}

	var payload struct {
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode payment response")
	}

	return &domain.PaymentResult{
		PaymentID: models.ID(payload.PaymentID),
		Status:    domain.PaymentResultStatus(payload.Status),
	}, nil
}
