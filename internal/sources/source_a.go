package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

// SourceAClient fetches orders from the first upstream platform, which
// serves a JSON array of order objects.
type SourceAClient struct {
	httpFetcher
}

// NewSourceAClient creates a client for source A
func NewSourceAClient(baseURL string, logger logger.Logger) *SourceAClient {
	return &SourceAClient{httpFetcher: newHTTPFetcher(baseURL, logger)}
}

// Source identifies the platform this client serves
func (c *SourceAClient) Source() models.Source {
	return models.SourceA
}

// Fetch pulls and filters orders for the given task
func (c *SourceAClient) Fetch(ctx context.Context, task *models.Task) ([]models.Order, error) {
	body, err := c.get(ctx, c.baseURL+"/api/orders")

	if err != nil {
		return nil, fmt.Errorf("source_a fetch failed: %w", err)
	}

	var raws []rawOrder

	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("source_a returned invalid JSON: %w", err)
	}

	orders := buildOrders(task, models.SourceA, raws, c.logger)

	c.logger.Info("Fetched orders from source A",
		"taskID", task.ID,
		"received", len(raws),
		"kept", len(orders))

	return orders, nil
}
