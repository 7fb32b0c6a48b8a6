package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// PostgresOrderRepository persists orders in PostgreSQL. The system is
// ephemeral by default; this repository is wired only when a database is
// configured, and exists so a deployment can keep orders across restarts.
type PostgresOrderRepository struct {
	db *sqlx.DB
}

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

type postgresOrder struct {
	ID         string    `db:"id"`
	CustomerID string    `db:"customer_id"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Version    int       `db:"version"`
}

type postgresOrderItem struct {
	OrderID   string `db:"order_id"`
	ProductID string `db:"product_id"`
	Quantity  int    `db:"quantity"`
	UnitPrice int64  `db:"unit_price"`
	Currency  string `db:"currency"`
}

// Save inserts a version-1 order with its items, or updates the status of
// an existing one under optimistic locking.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if order.Version.Value == 1 {
		return r.insert(ctx, order)
	}
	return r.update(ctx, order)
}

func (r *PostgresOrderRepository) insert(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (id, customer_id, status, created_at, updated_at, version)
		VALUES (:id, :customer_id, :status, :created_at, :updated_at, :version)`,
		&postgresOrder{
			ID:         order.ID.String(),
			CustomerID: order.CustomerID.String(),
			Status:     string(order.Status),
			CreatedAt:  order.Timestamps.CreatedAt,
			UpdatedAt:  order.Timestamps.UpdatedAt,
			Version:    order.Version.Value,
		})
	if err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	for _, item := range order.Items {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, currency)
			VALUES (:order_id, :product_id, :quantity, :unit_price, :currency)`,
			&postgresOrderItem{
				OrderID:   order.ID.String(),
				ProductID: item.ProductID.String(),
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice.Amount,
				Currency:  item.UnitPrice.Currency,
			})
		if err != nil {
			return errors.Wrap(err, "failed to insert order item")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit order insert")
}

func (r *PostgresOrderRepository) update(ctx context.Context, order *domain.Order) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE orders
		SET status = :status, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`,
		map[string]interface{}{
			"id":          order.ID.String(),
			"status":      string(order.Status),
			"updated_at":  order.Timestamps.UpdatedAt,
			"version":     order.Version.Value,
			"old_version": order.Version.Value - 1,
		})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if rows == 0 {
		return errors.Errorf("stale order version %d for %s", order.Version.Value-1, order.ID)
	}
	return nil
}

// FindByID implements domain.OrderRepository
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, `
		SELECT id, customer_id, status, created_at, updated_at, version
		FROM orders WHERE id = $1`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	var pgItems []postgresOrderItem
	err = r.db.SelectContext(ctx, &pgItems, `
		SELECT order_id, product_id, quantity, unit_price, currency
		FROM order_items WHERE order_id = $1`, id.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order items")
	}

	items := make([]domain.OrderItem, len(pgItems))
	for i, pgItem := range pgItems {
		price, err := models.NewMoney(pgItem.UnitPrice, pgItem.Currency)
		if err != nil {
			return nil, errors.Wrap(err, "invalid stored unit price")
		}
		items[i] = domain.OrderItem{
			ProductID: models.ID(pgItem.ProductID),
			Quantity:  pgItem.Quantity,
			UnitPrice: price,
		}
	}

	return &domain.Order{
		ID:         models.ID(pgOrder.ID),
		CustomerID: models.ID(pgOrder.CustomerID),
		Items:      items,
		Status:     domain.OrderStatus(pgOrder.Status),
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}, nil
}
