package models

import (
	"time"

	"github.com/lib/pq"
)

// TaskStatus represents the lifecycle state of an import task. Transitions
// are strictly forward: pending -> in_progress -> completed. A failed run
// reverts the task to pending for a later retry; there is no error state.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Task represents one import job: which sources to pull, an optional date
// window, and per-source category filters.
type Task struct {
	ID                 string         `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	Description        string         `db:"description" json:"description"`
	Status             TaskStatus     `db:"status" json:"status"`
	DateFrom           *time.Time     `db:"date_from" json:"date_from,omitempty"`
	DateTo             *time.Time     `db:"date_to" json:"date_to,omitempty"`
	SourceAEnabled     bool           `db:"source_a_enabled" json:"source_a_enabled"`
	SourceBEnabled     bool           `db:"source_b_enabled" json:"source_b_enabled"`
	SourceACategories  pq.StringArray `db:"source_a_categories" json:"source_a_categories"`
	SourceBCategories  pq.StringArray `db:"source_b_categories" json:"source_b_categories"`
	ProcessingAttempts int            `db:"processing_attempts" json:"processing_attempts"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// NewTask creates a pending task.
func NewTask(title, description string) *Task {
	return &Task{
		ID:          GenerateID("tsk"),
		Title:       title,
		Description: description,
		Status:      TaskStatusPending,
		CreatedAt:   GetCurrentTime(),
	}
}

// SourceEnabled reports whether the task should pull from the given source.
func (t *Task) SourceEnabled(s Source) bool {
	switch s {
	case SourceA:
		return t.SourceAEnabled
	case SourceB:
		return t.SourceBEnabled
	}
	return false
}

// CategoriesFor returns the category filter list for the given source. An
// empty list means no category filtering.
func (t *Task) CategoriesFor(s Source) []string {
	switch s {
	case SourceA:
		return t.SourceACategories
	case SourceB:
		return t.SourceBCategories
	}
	return nil
}
