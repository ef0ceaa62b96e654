package dashclient

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is how often the watcher refreshes a task.
const DefaultPollInterval = 5 * time.Second

// Update is one observation of a watched task.
type Update struct {
	Task *Task
	Err  error
}

// Watcher polls one task until it completes or the watcher is stopped.
// Responses are sequence-guarded: an answer to an older poll that arrives
// after a newer one is dropped instead of rolling the status backwards.
type Watcher struct {
	client   *Client
	taskID   string
	interval time.Duration
	updates  chan Update

	mu      sync.Mutex
	seq     uint64
	latest  uint64
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewWatcher creates a watcher for the given task. A zero interval uses
// DefaultPollInterval.
func NewWatcher(client *Client, taskID string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Watcher{
		client:   client,
		taskID:   taskID,
		interval: interval,
		updates:  make(chan Update, 1),
	}
}

// Updates delivers task observations. The channel closes when the watcher
// stops, either via Stop or because the task completed.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Start begins polling. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.loop(ctx)
}

// Stop halts polling and closes the updates channel. Safe to call twice.
func (w *Watcher) Stop() {
	w.mu.Lock()

	if !w.running {
		w.mu.Unlock()
		return
	}

	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.updates)
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Poll immediately so the caller sees the current state before the
	// first tick.
	if w.poll(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.poll(ctx) {
				return
			}
		}
	}
}

// poll fetches the task once and publishes the observation. It returns true
// when polling should stop because the task reached its terminal state.
func (w *Watcher) poll(ctx context.Context) bool {
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	task, err := w.client.GetTask(ctx, w.taskID)

	if ctx.Err() != nil {
		return true
	}

	if !w.accept(seq) {
		return false
	}

	w.publish(Update{Task: task, Err: err})

	return err == nil && task.Status == TaskCompleted
}

// accept records the newest answered sequence and rejects anything older.
func (w *Watcher) accept(seq uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if seq <= w.latest {
		return false
	}

	w.latest = seq
	return true
}

// publish replaces a stale unread update rather than blocking the loop.
func (w *Watcher) publish(u Update) {
	select {
	case w.updates <- u:
	default:
		select {
		case <-w.updates:
		default:
		}
		w.updates <- u
	}
}
