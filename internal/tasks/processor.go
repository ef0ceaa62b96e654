// Package tasks runs the background import pipeline: it claims pending
// tasks, pulls orders from the enabled upstream sources, persists the batch,
// and records an outbox event for downstream consumers.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/internal/sources"
	"github.com/ecomdash/order-analytics/internal/telemetry"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

// TaskStore is the subset of the task repository the processor needs.
type TaskStore interface {
	GetPending(ctx context.Context, limit, maxAttempts int) ([]*models.Task, error)
	MarkInProgress(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	RevertToPending(ctx context.Context, id string) error
}

// OrderStore persists the orders produced by a task run.
type OrderStore interface {
	InsertBatch(ctx context.Context, orders []models.Order) error
}

// EventStore records outbox events emitted by the pipeline.
type EventStore interface {
	Create(ctx context.Context, message *models.OutboxMessage) error
}

// Processor polls for pending import tasks and runs them
type Processor struct {
	taskStore  TaskStore
	orderStore OrderStore
	eventStore EventStore
	fetchers   []sources.Fetcher

	pollingInterval time.Duration
	batchSize       int
	maxAttempts     int
	logger          logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// ProcessorConfig holds the configuration for the Processor
type ProcessorConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	MaxAttempts     int
}

// NewProcessor creates a new Processor
func NewProcessor(
	taskStore TaskStore,
	orderStore OrderStore,
	eventStore EventStore,
	fetchers []sources.Fetcher,
	config ProcessorConfig,
	logger logger.Logger,
) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		taskStore:       taskStore,
		orderStore:      orderStore,
		eventStore:      eventStore,
		fetchers:        fetchers,
		pollingInterval: config.PollingInterval,
		batchSize:       config.BatchSize,
		maxAttempts:     config.MaxAttempts,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		running:         false,
	}
}

// Start starts the task processor
func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		p.processLoop()
	}()

	p.logger.Info("Task processor started",
		"pollingInterval", p.pollingInterval,
		"batchSize", p.batchSize)
}

// Stop stops the task processor and waits for the current poll to finish
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.cancel()
	p.wg.Wait()
	p.running = false

	p.logger.Info("Task processor stopped")
}

// processLoop claims and runs pending tasks on each tick
func (p *Processor) processLoop() {
	ticker := time.NewTicker(p.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessBatch(p.ctx); err != nil {
				p.logger.Error("Failed to process task batch", "error", err)
			}
		}
	}
}

// ProcessBatch claims up to batchSize pending tasks and runs each one.
// A task that fails is reverted to pending; the rest of the batch still runs.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	pending, err := p.taskStore.GetPending(ctx, p.batchSize, p.maxAttempts)

	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	p.logger.Info("Processing batch of import tasks", "count", len(pending))

	for _, task := range pending {
		if err := p.ProcessTask(ctx, task); err != nil {
			p.logger.Error("Task run failed",
				"error", err,
				"taskID", task.ID,
				"attempts", task.ProcessingAttempts)
			continue
		}
	}

	return nil
}

// ProcessTask runs one import task end to end. The claim is guarded in the
// store: a task another processor already claimed is skipped silently.
func (p *Processor) ProcessTask(ctx context.Context, task *models.Task) error {
	if err := p.taskStore.MarkInProgress(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to claim task: %w", err)
	}

	orders, bySource, err := p.fetchAll(ctx, task)

	if err != nil {
		p.fail(ctx, task)
		return err
	}

	if err := p.orderStore.InsertBatch(ctx, orders); err != nil {
		p.fail(ctx, task)
		return fmt.Errorf("failed to insert orders: %w", err)
	}

	completedAt := models.GetCurrentTime()

	if err := p.taskStore.MarkCompleted(ctx, task.ID, completedAt); err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}

	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &completedAt

	p.recordImportedEvent(ctx, task, len(orders), bySource)

	telemetry.TasksProcessed.Inc()
	telemetry.OrdersImported.Add(float64(len(orders)))

	p.logger.Info("Task completed",
		"taskID", task.ID,
		"orderCount", len(orders))

	return nil
}

// fetchAll pulls orders from every enabled source in parallel. If any source
// fails the whole run fails, so a completed task always holds data from all
// of its sources.
func (p *Processor) fetchAll(ctx context.Context, task *models.Task) ([]models.Order, map[models.Source]int, error) {
	g, gctx := errgroup.WithContext(ctx)

	results := make([][]models.Order, len(p.fetchers))

	for i, fetcher := range p.fetchers {
		if !task.SourceEnabled(fetcher.Source()) {
			continue
		}

		i, fetcher := i, fetcher

		g.Go(func() error {
			orders, err := fetcher.Fetch(gctx, task)

			if err != nil {
				telemetry.SourceFetchFails.WithLabelValues(string(fetcher.Source())).Inc()
				return fmt.Errorf("fetch from %s failed: %w", fetcher.Source(), err)
			}

			results[i] = orders
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var orders []models.Order
	bySource := make(map[models.Source]int)

	for i, batch := range results {
		orders = append(orders, batch...)
		if len(batch) > 0 {
			bySource[p.fetchers[i].Source()] += len(batch)
		}
	}

	return orders, bySource, nil
}

// fail reverts a claimed task to pending so a later poll retries it
func (p *Processor) fail(ctx context.Context, task *models.Task) {
	telemetry.TasksFailed.Inc()

	if err := p.taskStore.RevertToPending(ctx, task.ID); err != nil {
		p.logger.Error("Failed to revert task to pending", "error", err, "taskID", task.ID)
	}
}

// recordImportedEvent writes the orders_imported outbox event. Event loss is
// tolerated: the import itself already committed.
func (p *Processor) recordImportedEvent(ctx context.Context, task *models.Task, orderCount int, bySource map[models.Source]int) {
	message, err := models.NewOrdersImportedEvent(task, orderCount, bySource)

	if err != nil {
		p.logger.Error("Failed to build orders_imported event", "error", err, "taskID", task.ID)
		return
	}

	if err := p.eventStore.Create(ctx, message); err != nil {
		p.logger.Error("Failed to record orders_imported event", "error", err, "taskID", task.ID)
	}
}
