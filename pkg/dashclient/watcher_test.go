package dashclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherFollowsTaskToCompletion(t *testing.T) {
	var calls int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)

		task := Task{ID: "tsk-1", Title: "import", CreatedAt: time.Now().UTC()}

		switch {
		case n == 1:
			task.Status = TaskPending
		case n == 2:
			task.Status = TaskInProgress
		default:
			task.Status = TaskCompleted
		}

		raw, _ := json.Marshal(task)
		respond(w, http.StatusOK, envelope{Success: true, Data: raw})
	}))
	defer server.Close()

	watcher := NewWatcher(New(server.URL), "tsk-1", 10*time.Millisecond)
	watcher.Start()

	var seen []TaskStatus
	deadline := time.After(5 * time.Second)

	for {
		select {
		case update, ok := <-watcher.Updates():
			if !ok {
				if len(seen) == 0 || seen[len(seen)-1] != TaskCompleted {
					t.Fatalf("statuses seen = %v, want completion last", seen)
				}
				return
			}
			if update.Err != nil {
				t.Fatalf("unexpected update error: %v", update.Err)
			}
			seen = append(seen, update.Task.Status)
		case <-deadline:
			t.Fatal("watcher never completed")
		}
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		task := Task{ID: "tsk-1", Status: TaskPending}
		raw, _ := json.Marshal(task)
		respond(w, http.StatusOK, envelope{Success: true, Data: raw})
	}))
	defer server.Close()

	watcher := NewWatcher(New(server.URL), "tsk-1", 10*time.Millisecond)
	watcher.Start()
	watcher.Start()
	watcher.Stop()
	watcher.Stop()
}

func TestWatcherRejectsStaleSequences(t *testing.T) {
	watcher := NewWatcher(New("http://unused"), "tsk-1", time.Second)

	if !watcher.accept(1) {
		t.Fatal("first sequence should be accepted")
	}
	if !watcher.accept(3) {
		t.Fatal("newer sequence should be accepted")
	}
	// An answer to an older poll arriving late must be dropped, otherwise a
	// completed task could flick back to in_progress on screen.
	if watcher.accept(2) {
		t.Fatal("stale sequence should be rejected")
	}
	if watcher.accept(3) {
		t.Fatal("duplicate sequence should be rejected")
	}
}

func TestWatcherDefaultInterval(t *testing.T) {
	watcher := NewWatcher(New("http://unused"), "tsk-1", 0)

	if watcher.interval != DefaultPollInterval {
		t.Errorf("interval = %s, want %s", watcher.interval, DefaultPollInterval)
	}
}
