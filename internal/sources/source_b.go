package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

// SourceBClient fetches orders from the second upstream platform, which
// serves CSV with a header row.
type SourceBClient struct {
	httpFetcher
}

// NewSourceBClient creates a client for source B
func NewSourceBClient(baseURL string, logger logger.Logger) *SourceBClient {
	return &SourceBClient{httpFetcher: newHTTPFetcher(baseURL, logger)}
}

// Source identifies the platform this client serves
func (c *SourceBClient) Source() models.Source {
	return models.SourceB
}

// Fetch pulls and filters orders for the given task
func (c *SourceBClient) Fetch(ctx context.Context, task *models.Task) ([]models.Order, error) {
	body, err := c.get(ctx, c.baseURL+"/api/orders.csv")

	if err != nil {
		return nil, fmt.Errorf("source_b fetch failed: %w", err)
	}

	raws, err := parseCSVOrders(body, c.logger)

	if err != nil {
		return nil, fmt.Errorf("source_b returned invalid CSV: %w", err)
	}

	orders := buildOrders(task, models.SourceB, raws, c.logger)

	c.logger.Info("Fetched orders from source B",
		"taskID", task.ID,
		"received", len(raws),
		"kept", len(orders))

	return orders, nil
}

// parseCSVOrders decodes the CSV payload into raw order records. Rows with
// malformed numeric fields are skipped.
func parseCSVOrders(body []byte, log logger.Logger) ([]rawOrder, error) {
	reader := csv.NewReader(bytes.NewReader(body))

	header, err := reader.Read()

	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var raws []rawOrder

	for {
		record, err := reader.Read()

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		quantity, err := strconv.Atoi(field(record, "quantity"))

		if err != nil {
			log.Warn("Skipping CSV row with invalid quantity", "orderID", field(record, "order_id"))
			continue
		}

		unitPrice, err := strconv.ParseFloat(field(record, "unit_price"), 64)

		if err != nil {
			log.Warn("Skipping CSV row with invalid unit price", "orderID", field(record, "order_id"))
			continue
		}

		totalAmount, err := strconv.ParseFloat(field(record, "total_amount"), 64)

		if err != nil {
			log.Warn("Skipping CSV row with invalid total amount", "orderID", field(record, "order_id"))
			continue
		}

		raws = append(raws, rawOrder{
			OrderID:            field(record, "order_id"),
			ProductName:        field(record, "product_name"),
			ProductCategory:    field(record, "product_category"),
			Quantity:           quantity,
			UnitPrice:          unitPrice,
			TotalAmount:        totalAmount,
			OrderDate:          field(record, "order_date"),
			CustomerID:         field(record, "customer_id"),
			CustomerCountry:    field(record, "customer_country"),
			SourceSpecificData: json.RawMessage(field(record, "source_specific_data")),
		})
	}

	return raws, nil
}
