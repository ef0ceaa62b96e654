package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ecomdash/order-analytics/internal/config"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{
		DB:     db,
		logger: logger,
	}, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations runs database migrations
func (d *Database) RunMigrations() error {
	// For initial setup, just create tables directly
	// In a real project, you'd want to use a migration tool
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(50) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		date_from TIMESTAMP,
		date_to TIMESTAMP,
		source_a_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		source_b_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		source_a_categories TEXT[] NOT NULL DEFAULT '{}',
		source_b_categories TEXT[] NOT NULL DEFAULT '{}',
		processing_attempts INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);

	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(50) PRIMARY KEY,
		task_id VARCHAR(50) NOT NULL REFERENCES tasks(id),
		order_id VARCHAR(100) NOT NULL,
		source VARCHAR(20) NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		product_category VARCHAR(255) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(12, 2) NOT NULL,
		total_amount DECIMAL(12, 2) NOT NULL,
		order_date TIMESTAMP NOT NULL,
		customer_id VARCHAR(100),
		customer_country VARCHAR(100),
		source_specific_data TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_orders_task_id ON orders(task_id);
	CREATE INDEX IF NOT EXISTS idx_orders_source ON orders(source);
	CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date);

	-- Outbox table for event publishing
	CREATE TABLE IF NOT EXISTS outbox_messages (
		id SERIAL PRIMARY KEY,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMP,
		processing_attempts INT NOT NULL DEFAULT 0,
		last_error TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status);
	CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_messages(aggregate_type, aggregate_id);
	`

	_, err := d.DB.Exec(schema)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}
