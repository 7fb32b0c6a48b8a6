package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/product-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// ErrProductNotFound is returned when no product exists for the queried id
var ErrProductNotFound = errors.New("product not found")

// ProductResponse is the product view exposed to callers
type ProductResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
	Stock     int    `json:"stock"`
}

// ProductCatalog answers the two synchronous questions the order
// orchestration asks before creating an order
type ProductCatalog struct {
	productRepository domain.ProductRepository
}

// NewProductCatalog creates a new ProductCatalog
func NewProductCatalog(productRepository domain.ProductRepository) *ProductCatalog {
	return &ProductCatalog{productRepository: productRepository}
}

// GetProduct returns product details and current stock
func (uc *ProductCatalog) GetProduct(ctx context.Context, productID models.ID) (*ProductResponse, error) {
	product, err := uc.find(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &ProductResponse{
		ProductID: product.ID.String(),
		Name:      product.Name,
		Price:     product.Price.Amount,
		Currency:  product.Price.Currency,
		Stock:     product.Stock,
	}, nil
}

// CheckInventory reports whether quantity units of the product are in stock
func (uc *ProductCatalog) CheckInventory(ctx context.Context, productID models.ID, quantity int) (bool, error) {
	product, err := uc.find(ctx, productID)
	if err != nil {
		return false, err
	}
	return product.HasStock(quantity), nil
}

func (uc *ProductCatalog) find(ctx context.Context, productID models.ID) (*domain.Product, error) {
	product, err := uc.productRepository.FindByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find product")
	}
	if product == nil {
		return nil, errors.Wrapf(ErrProductNotFound, "product %s", productID)
	}
	return product, nil
}
