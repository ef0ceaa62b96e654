// Package sources contains the clients for the two upstream order platforms.
// Each client fetches raw order payloads over HTTP, applies the task's date
// window and category filters, and returns normalized order records.
package sources

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/pkg/circuitbreaker"
	"github.com/ecomdash/order-analytics/pkg/errors"
	"github.com/ecomdash/order-analytics/pkg/logger"
	"github.com/ecomdash/order-analytics/pkg/retry"
)

// Fetcher pulls orders for a task from one upstream platform.
type Fetcher interface {
	Source() models.Source
	Fetch(ctx context.Context, task *models.Task) ([]models.Order, error)
}

// rawOrder is the wire shape shared by both upstream platforms.
type rawOrder struct {
	OrderID            string          `json:"order_id"`
	ProductName        string          `json:"product_name"`
	ProductCategory    string          `json:"product_category"`
	Quantity           int             `json:"quantity"`
	UnitPrice          float64         `json:"unit_price"`
	TotalAmount        float64         `json:"total_amount"`
	OrderDate          string          `json:"order_date"`
	CustomerID         string          `json:"customer_id"`
	CustomerCountry    string          `json:"customer_country"`
	SourceSpecificData json.RawMessage `json:"source_specific_data"`
}

// httpFetcher is the shared HTTP plumbing: retries on transient failures and
// a circuit breaker in front of the upstream.
type httpFetcher struct {
	baseURL     string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig *retry.RetryConfig
	breaker     *circuitbreaker.CircuitBreaker
}

func newHTTPFetcher(baseURL string, logger logger.Logger) httpFetcher {
	return httpFetcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		retryConfig: &retry.RetryConfig{
			MaxAttempts: 3,
			BackoffStrategy: &retry.ExponentialBackoff{
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      1.5,
				JitterFactor:    0.2,
			},
			Logger: logger,
			RetryableErrors: []error{
				errors.ErrTimeout,
				errors.ErrTemporaryFailure,
				errors.ErrServiceUnavailable,
			},
		},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 2,
		}),
	}
}

// get fetches a URL with retries behind the circuit breaker and returns the
// response body.
func (c *httpFetcher) get(ctx context.Context, url string) ([]byte, error) {
	if !c.breaker.Allow() {
		return nil, errors.NewServiceUnavailableError("upstream circuit open: " + url)
	}

	var body []byte

	retryFunc := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

		if err != nil {
			return errors.NewInternalError("failed to create request: " + err.Error())
		}

		resp, err := c.httpClient.Do(req)

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return errors.NewTimeoutError("request timed out: " + url)
			}
			return errors.NewTemporaryError("failed to make request: " + err.Error())
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return errors.NewTemporaryError("upstream returned " + resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return errors.NewInternalError("upstream returned " + resp.Status)
		}

		body, err = io.ReadAll(resp.Body)

		if err != nil {
			return errors.NewTemporaryError("failed to read response body: " + err.Error())
		}

		return nil
	}

	if err := retry.Retry(ctx, retryFunc, c.retryConfig); err != nil {
		c.breaker.Failure()
		return nil, err
	}

	c.breaker.Success()
	return body, nil
}

// dateLayouts are tried in order when parsing upstream timestamps.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseOrderDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// taskWindow returns the task's date window, defaulting to the last 30 days
// when a bound is unset.
func taskWindow(task *models.Task) (time.Time, time.Time) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now

	if task.DateFrom != nil {
		start = *task.DateFrom
	}
	if task.DateTo != nil {
		end = *task.DateTo
	}

	return start, end
}

func categoryAllowed(categories []string, category string) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}

// buildOrders normalizes raw upstream records into order models, applying
// the task's window and category filters. Records with unparseable dates
// are skipped rather than imported with a zero timestamp.
func buildOrders(task *models.Task, source models.Source, raws []rawOrder, log logger.Logger) []models.Order {
	start, end := taskWindow(task)
	categories := task.CategoriesFor(source)

	orders := make([]models.Order, 0, len(raws))

	for _, raw := range raws {
		orderDate, ok := parseOrderDate(raw.OrderDate)

		if !ok {
			log.Warn("Skipping order with unparseable date",
				"source", source,
				"orderID", raw.OrderID,
				"orderDate", raw.OrderDate)
			continue
		}

		if orderDate.Before(start) || orderDate.After(end) {
			continue
		}

		if !categoryAllowed(categories, raw.ProductCategory) {
			continue
		}

		order := models.NewOrder(task.ID, source, raw.OrderID)
		order.ProductName = raw.ProductName
		order.ProductCategory = raw.ProductCategory
		order.Quantity = raw.Quantity
		order.UnitPrice = raw.UnitPrice
		order.TotalAmount = raw.TotalAmount
		order.OrderDate = orderDate
		order.CustomerID = raw.CustomerID
		order.CustomerCountry = raw.CustomerCountry
		order.SourceSpecificData = string(raw.SourceSpecificData)

		orders = append(orders, *order)
	}

	return orders
}
