package repository

import (
	"context"
	"fmt"

	"github.com/ecomdash/order-analytics/internal/database"
	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

// OrderRepository handles database operations for imported orders
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, task_id, order_id, source, product_name, product_category,
	quantity, unit_price, total_amount, order_date,
	customer_id, customer_country, source_specific_data
`

// InsertBatch inserts all orders produced by a task run. The batch goes in
// one transaction so a half-imported task never becomes visible.
func (r *OrderRepository) InsertBatch(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.db.DB.BeginTxx(ctx, nil)

	if err != nil {
		r.logger.Error("Failed to begin insert transaction", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (:id, :task_id, :order_id, :source, :product_name, :product_category,
				:quantity, :unit_price, :total_amount, :order_date,
				:customer_id, :customer_country, :source_specific_data)
	`

	for i := range orders {
		if _, err := tx.NamedExecContext(ctx, query, &orders[i]); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				r.logger.Error("Failed to rollback order insert", "error", rollbackErr)
			}
			r.logger.Error("Failed to insert order", "error", err, "orderID", orders[i].ID)
			return fmt.Errorf("%w: %v", ErrDatabase, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit order batch", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByTaskID retrieves all orders belonging to a task
func (r *OrderRepository) GetByTaskID(ctx context.Context, taskID string) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE task_id = $1
		ORDER BY order_date ASC
	`

	var orders []models.Order
	err := r.db.DB.SelectContext(ctx, &orders, query, taskID)

	if err != nil {
		r.logger.Error("Failed to get orders by task ID", "error", err, "taskID", taskID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// GetAll retrieves all orders with optional limit and offset
func (r *OrderRepository) GetAll(ctx context.Context, limit, offset int) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY order_date DESC
		LIMIT $1 OFFSET $2
	`

	var orders []models.Order
	err := r.db.DB.SelectContext(ctx, &orders, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get all orders", "error", err, "limit", limit, "offset", offset)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// CountByTaskID counts the orders imported for a task
func (r *OrderRepository) CountByTaskID(ctx context.Context, taskID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE task_id = $1`

	err := r.db.DB.GetContext(ctx, &count, query, taskID)

	if err != nil {
		r.logger.Error("Failed to count orders", "error", err, "taskID", taskID)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}
