package domain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/models"
)

// Product is the catalog entry other services check before selling
type Product struct {
	ID         models.ID
	Name       string
	Price      models.Money
	Stock      int
	Timestamps models.Timestamps
}

// NewProduct creates a validated product
func NewProduct(name string, price models.Money, stock int) (*Product, error) {
	if name == "" {
		return nil, errors.New("product name is required")
	}
	if !price.IsPositive() {
		return nil, errors.New("product price must be positive")
	}
	if stock < 0 {
		return nil, errors.New("stock must not be negative")
	}

	return &Product{
		ID:         models.GenerateUUID(),
		Name:       name,
		Price:      price,
		Stock:      stock,
		Timestamps: models.NewTimestamps(),
	}, nil
}

// HasStock reports whether quantity units are available
func (p *Product) HasStock(quantity int) bool {
	return quantity >= 1 && p.Stock >= quantity
}

// ProductRepository stores catalog entries. FindByID returns (nil, nil)
// when the product does not exist.
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id models.ID) (*Product, error)
}
