package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/internal/sources"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

type stubTaskStore struct {
	mu        sync.Mutex
	tasks     map[string]*models.Task
	completed map[string]time.Time
	reverted  []string
}

func newStubTaskStore(tasks ...*models.Task) *stubTaskStore {
	s := &stubTaskStore{
		tasks:     make(map[string]*models.Task),
		completed: make(map[string]time.Time),
	}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *stubTaskStore) GetPending(_ context.Context, limit, maxAttempts int) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*models.Task
	for _, t := range s.tasks {
		if t.Status == models.TaskStatusPending && t.ProcessingAttempts < maxAttempts && len(pending) < limit {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

func (s *stubTaskStore) MarkInProgress(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status != models.TaskStatusPending {
		return errors.New("task not claimable")
	}
	t.Status = models.TaskStatusInProgress
	t.ProcessingAttempts++
	return nil
}

func (s *stubTaskStore) MarkCompleted(_ context.Context, id string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status != models.TaskStatusInProgress {
		return errors.New("task not in progress")
	}
	t.Status = models.TaskStatusCompleted
	s.completed[id] = completedAt
	return nil
}

func (s *stubTaskStore) RevertToPending(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return errors.New("task not found")
	}
	if t.Status == models.TaskStatusInProgress {
		t.Status = models.TaskStatusPending
	}
	s.reverted = append(s.reverted, id)
	return nil
}

type stubOrderStore struct {
	mu       sync.Mutex
	inserted []models.Order
	err      error
}

func (s *stubOrderStore) InsertBatch(_ context.Context, orders []models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, orders...)
	return nil
}

type stubEventStore struct {
	mu       sync.Mutex
	messages []*models.OutboxMessage
}

func (s *stubEventStore) Create(_ context.Context, message *models.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, message)
	return nil
}

type stubFetcher struct {
	source models.Source
	orders []models.Order
	err    error
}

func (f *stubFetcher) Source() models.Source { return f.source }

func (f *stubFetcher) Fetch(_ context.Context, task *models.Task) ([]models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Order, len(f.orders))
	copy(out, f.orders)
	for i := range out {
		out[i].TaskID = task.ID
	}
	return out, nil
}

func fetcherList(fs ...*stubFetcher) []sources.Fetcher {
	out := make([]sources.Fetcher, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

func makeOrders(source models.Source, n int) []models.Order {
	orders := make([]models.Order, n)
	for i := range orders {
		o := models.NewOrder("", source, "ord")
		o.TotalAmount = 10
		orders[i] = *o
	}
	return orders
}

func TestProcessTaskSuccess(t *testing.T) {
	task := models.NewTask("import", "")
	task.SourceAEnabled = true
	task.SourceBEnabled = true

	taskStore := newStubTaskStore(task)
	orderStore := &stubOrderStore{}
	eventStore := &stubEventStore{}

	processor := NewProcessor(taskStore, orderStore, eventStore,
		fetcherList(
			&stubFetcher{source: models.SourceA, orders: makeOrders(models.SourceA, 3)},
			&stubFetcher{source: models.SourceB, orders: makeOrders(models.SourceB, 2)},
		),
		ProcessorConfig{PollingInterval: time.Second, BatchSize: 5, MaxAttempts: 3},
		logger.Nop())

	if err := processor.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if task.Status != models.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", task.Status)
	}
	if task.CompletedAt == nil {
		t.Error("completed task should carry a completion timestamp")
	}
	if len(orderStore.inserted) != 5 {
		t.Errorf("inserted %d orders, want 5", len(orderStore.inserted))
	}
	for _, o := range orderStore.inserted {
		if o.TaskID != task.ID {
			t.Fatalf("order %s not stamped with task ID", o.ID)
		}
	}

	if len(eventStore.messages) != 1 {
		t.Fatalf("recorded %d events, want 1", len(eventStore.messages))
	}
	if eventStore.messages[0].EventType != "orders_imported" {
		t.Errorf("event type = %s", eventStore.messages[0].EventType)
	}
}

func TestProcessTaskFetchFailureReverts(t *testing.T) {
	task := models.NewTask("import", "")
	task.SourceAEnabled = true
	task.SourceBEnabled = true

	taskStore := newStubTaskStore(task)
	orderStore := &stubOrderStore{}
	eventStore := &stubEventStore{}

	processor := NewProcessor(taskStore, orderStore, eventStore,
		fetcherList(
			&stubFetcher{source: models.SourceA, orders: makeOrders(models.SourceA, 3)},
			&stubFetcher{source: models.SourceB, err: errors.New("upstream down")},
		),
		ProcessorConfig{PollingInterval: time.Second, BatchSize: 5, MaxAttempts: 3},
		logger.Nop())

	if err := processor.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("expected error when one source fails")
	}

	// A partial import never commits: the task reverts and no orders land.
	if task.Status != models.TaskStatusPending {
		t.Errorf("status = %s, want pending after revert", task.Status)
	}
	if len(orderStore.inserted) != 0 {
		t.Errorf("inserted %d orders, want 0", len(orderStore.inserted))
	}
	if len(eventStore.messages) != 0 {
		t.Errorf("recorded %d events, want 0", len(eventStore.messages))
	}
	if task.ProcessingAttempts != 1 {
		t.Errorf("attempts = %d, want 1", task.ProcessingAttempts)
	}
}

func TestProcessTaskSkipsDisabledSource(t *testing.T) {
	task := models.NewTask("import", "")
	task.SourceAEnabled = true

	taskStore := newStubTaskStore(task)
	orderStore := &stubOrderStore{}
	eventStore := &stubEventStore{}

	// Source B would fail if called, but it is disabled on the task.
	processor := NewProcessor(taskStore, orderStore, eventStore,
		fetcherList(
			&stubFetcher{source: models.SourceA, orders: makeOrders(models.SourceA, 2)},
			&stubFetcher{source: models.SourceB, err: errors.New("should not be called")},
		),
		ProcessorConfig{PollingInterval: time.Second, BatchSize: 5, MaxAttempts: 3},
		logger.Nop())

	if err := processor.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orderStore.inserted) != 2 {
		t.Errorf("inserted %d orders, want 2", len(orderStore.inserted))
	}
}

func TestProcessTaskInsertFailureReverts(t *testing.T) {
	task := models.NewTask("import", "")
	task.SourceAEnabled = true

	taskStore := newStubTaskStore(task)
	orderStore := &stubOrderStore{err: errors.New("db down")}
	eventStore := &stubEventStore{}

	processor := NewProcessor(taskStore, orderStore, eventStore,
		fetcherList(
			&stubFetcher{source: models.SourceA, orders: makeOrders(models.SourceA, 2)},
		),
		ProcessorConfig{PollingInterval: time.Second, BatchSize: 5, MaxAttempts: 3},
		logger.Nop())

	if err := processor.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("expected error when insert fails")
	}
	if task.Status != models.TaskStatusPending {
		t.Errorf("status = %s, want pending after revert", task.Status)
	}
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	good := models.NewTask("good", "")
	good.SourceAEnabled = true
	bad := models.NewTask("bad", "")
	bad.SourceBEnabled = true

	taskStore := newStubTaskStore(good, bad)
	orderStore := &stubOrderStore{}
	eventStore := &stubEventStore{}

	processor := NewProcessor(taskStore, orderStore, eventStore,
		fetcherList(
			&stubFetcher{source: models.SourceA, orders: makeOrders(models.SourceA, 1)},
			&stubFetcher{source: models.SourceB, err: errors.New("upstream down")},
		),
		ProcessorConfig{PollingInterval: time.Second, BatchSize: 5, MaxAttempts: 3},
		logger.Nop())

	if err := processor.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if good.Status != models.TaskStatusCompleted {
		t.Errorf("good task status = %s, want completed", good.Status)
	}
	if bad.Status != models.TaskStatusPending {
		t.Errorf("bad task status = %s, want pending", bad.Status)
	}
}

func TestProcessorStartStopIdempotent(t *testing.T) {
	taskStore := newStubTaskStore()
	processor := NewProcessor(taskStore, &stubOrderStore{}, &stubEventStore{}, nil,
		ProcessorConfig{PollingInterval: 10 * time.Millisecond, BatchSize: 5, MaxAttempts: 3},
		logger.Nop())

	processor.Start()
	processor.Start()
	processor.Stop()
	processor.Stop()
}
