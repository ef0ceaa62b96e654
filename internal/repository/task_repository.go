package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ecomdash/order-analytics/internal/database"
	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)

// TaskRepository handles database operations for import tasks
type TaskRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *database.Database, logger logger.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// BeginTx starts a new database transaction
func (r *TaskRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.DB.BeginTx(ctx, nil)

	if err != nil {
		r.logger.Error("Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return tx, nil
}

// CreateInTx inserts a new task within a transaction
func (r *TaskRepository) CreateInTx(tx *sql.Tx, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			id, title, description, status, date_from, date_to,
			source_a_enabled, source_b_enabled, source_a_categories, source_b_categories,
			processing_attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.Exec(
		query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.DateFrom,
		task.DateTo,
		task.SourceAEnabled,
		task.SourceBEnabled,
		task.SourceACategories,
		task.SourceBCategories,
		task.ProcessingAttempts,
		task.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create task in transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `
		SELECT id, title, description, status, date_from, date_to,
			   source_a_enabled, source_b_enabled, source_a_categories, source_b_categories,
			   processing_attempts, created_at, completed_at
		FROM tasks
		WHERE id = $1
	`

	var task models.Task
	err := r.db.DB.GetContext(ctx, &task, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get task by ID", "error", err, "taskID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &task, nil
}

// GetAll retrieves all tasks, newest first
func (r *TaskRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.Task, error) {
	query := `
		SELECT id, title, description, status, date_from, date_to,
			   source_a_enabled, source_b_enabled, source_a_categories, source_b_categories,
			   processing_attempts, created_at, completed_at
		FROM tasks
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var tasks []*models.Task
	err := r.db.DB.SelectContext(ctx, &tasks, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get all tasks", "error", err, "limit", limit, "offset", offset)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return tasks, nil
}

// GetPending retrieves pending tasks that have not exhausted their attempts,
// oldest first, for the processor to claim.
func (r *TaskRepository) GetPending(ctx context.Context, limit, maxAttempts int) ([]*models.Task, error) {
	query := `
		SELECT id, title, description, status, date_from, date_to,
			   source_a_enabled, source_b_enabled, source_a_categories, source_b_categories,
			   processing_attempts, created_at, completed_at
		FROM tasks
		WHERE status = $1 AND processing_attempts < $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	var tasks []*models.Task
	err := r.db.DB.SelectContext(ctx, &tasks, query, models.TaskStatusPending, maxAttempts, limit)

	if err != nil {
		r.logger.Error("Failed to get pending tasks", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return tasks, nil
}

// MarkInProgress moves a pending task to in_progress and counts the attempt.
// Only a pending task can be claimed, so concurrent processors cannot pick
// up the same task twice.
func (r *TaskRepository) MarkInProgress(ctx context.Context, id string) error {
	query := `
		UPDATE tasks
		SET status = $1, processing_attempts = processing_attempts + 1
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.DB.ExecContext(ctx, query, models.TaskStatusInProgress, id, models.TaskStatusPending)

	if err != nil {
		r.logger.Error("Failed to mark task in progress", "error", err, "taskID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkCompleted moves an in_progress task to completed
func (r *TaskRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	query := `
		UPDATE tasks
		SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.DB.ExecContext(ctx, query, models.TaskStatusCompleted, completedAt, id, models.TaskStatusInProgress)

	if err != nil {
		r.logger.Error("Failed to mark task completed", "error", err, "taskID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// RevertToPending returns a failed in_progress task to pending so a later
// poll can retry it. Completed tasks are never reverted.
func (r *TaskRepository) RevertToPending(ctx context.Context, id string) error {
	query := `
		UPDATE tasks
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	_, err := r.db.DB.ExecContext(ctx, query, models.TaskStatusPending, id, models.TaskStatusInProgress)

	if err != nil {
		r.logger.Error("Failed to revert task to pending", "error", err, "taskID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}
