// Package handlers contains the Kafka consumers for import pipeline events.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"

	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

// CacheInvalidator drops cached analytics views for a task.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, taskID string)
}

// ImportEventsHandler consumes import pipeline events from Kafka
type ImportEventsHandler struct {
	cache  CacheInvalidator
	logger logger.Logger
}

// NewImportEventsHandler creates a new ImportEventsHandler
func NewImportEventsHandler(cache CacheInvalidator, logger logger.Logger) *ImportEventsHandler {
	return &ImportEventsHandler{
		cache:  cache,
		logger: logger,
	}
}

// HandleMessage handles incoming import events from Kafka messages
func (h *ImportEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("failed to unmarshal message", "error", err)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	h.logger.Info("Handling import event",
		"eventType", event.EventType,
		"eventId", event.EventID,
		"aggregateId", event.AggregateID,
		"occurredAt", event.OccurredAt,
	)

	switch event.EventType {
	case "task_created":
		return h.handleTaskCreated(event)
	case "orders_imported":
		return h.handleOrdersImported(ctx, event)
	default:
		h.logger.Warn("unknown event type", "eventType", event.EventType)
		return nil
	}
}

// handleTaskCreated handles the task_created event
func (h *ImportEventsHandler) handleTaskCreated(event models.OutboxMessageEvent) error {
	h.logger.Info("Import task submitted",
		"taskID", event.AggregateID,
		"eventID", event.EventID,
	)
	return nil
}

// handleOrdersImported handles the orders_imported event. Fresh orders make
// every cached analytics view for the task stale, so the cache is dropped.
func (h *ImportEventsHandler) handleOrdersImported(ctx context.Context, event models.OutboxMessageEvent) error {
	data, ok := event.Data.(map[string]interface{})

	if !ok {
		h.logger.Error("Invalid event data format", "eventID", event.EventID)
		return fmt.Errorf("invalid event data format")
	}

	orderCount, _ := data["order_count"].(float64)

	h.logger.Info("Orders imported for task",
		"taskID", event.AggregateID,
		"orderCount", int(orderCount))

	if h.cache != nil {
		h.cache.Invalidate(ctx, event.AggregateID)
	}

	return nil
}
