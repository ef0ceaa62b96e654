// Package service holds the write-side operations on import tasks.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/internal/repository"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo   *repository.TaskRepository
	outboxRepo *repository.OutboxRepository
	logger     logger.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo *repository.TaskRepository,
	outboxRepo *repository.OutboxRepository,
	logger logger.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateTaskInput carries the fields accepted when submitting an import task.
type CreateTaskInput struct {
	Title             string
	Description       string
	DateFrom          *time.Time
	DateTo            *time.Time
	SourceAEnabled    bool
	SourceBEnabled    bool
	SourceACategories []string
	SourceBCategories []string
}

// CreateTask creates a pending import task and its task_created outbox event
// in one transaction, so every persisted task has an event and vice versa.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	task := models.NewTask(input.Title, input.Description)
	task.DateFrom = input.DateFrom
	task.DateTo = input.DateTo
	task.SourceAEnabled = input.SourceAEnabled
	task.SourceBEnabled = input.SourceBEnabled
	task.SourceACategories = input.SourceACategories
	task.SourceBCategories = input.SourceBCategories

	outboxMsg, err := models.NewTaskCreatedEvent(task)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	tx, err := s.taskRepo.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rollbackErr)
			}
		}
	}()

	if err = s.taskRepo.CreateInTx(tx, task); err != nil {
		return nil, err
	}

	if err = s.outboxRepo.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Task created with outbox message", "task_id", task.ID, "outbox_id", outboxMsg.ID)
	return task, nil
}

// GetTask returns a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// ListTasks returns tasks newest first
func (s *TaskService) ListTasks(ctx context.Context, limit, offset int) ([]*models.Task, error) {
	return s.taskRepo.GetAll(ctx, limit, offset)
}
