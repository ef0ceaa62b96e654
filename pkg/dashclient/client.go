// Package dashclient is the Go client for the order analytics API. It wraps
// the task and analytics endpoints and provides a polling watcher that
// follows a task through its import lifecycle.
package dashclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 10 * time.Second

// TaskStatus mirrors the server's task lifecycle states.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Task is an import task as returned by the API.
type Task struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             TaskStatus `json:"status"`
	DateFrom           *time.Time `json:"date_from,omitempty"`
	DateTo             *time.Time `json:"date_to,omitempty"`
	SourceAEnabled     bool       `json:"source_a_enabled"`
	SourceBEnabled     bool       `json:"source_b_enabled"`
	SourceACategories  []string   `json:"source_a_categories"`
	SourceBCategories  []string   `json:"source_b_categories"`
	ProcessingAttempts int        `json:"processing_attempts"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// Order is one imported order row.
type Order struct {
	ID                 string    `json:"id"`
	TaskID             string    `json:"task_id"`
	OrderID            string    `json:"order_id"`
	Source             string    `json:"source"`
	ProductName        string    `json:"product_name"`
	ProductCategory    string    `json:"product_category"`
	Quantity           int       `json:"quantity"`
	UnitPrice          float64   `json:"unit_price"`
	TotalAmount        float64   `json:"total_amount"`
	OrderDate          time.Time `json:"order_date"`
	CustomerID         string    `json:"customer_id"`
	CustomerCountry    string    `json:"customer_country"`
	SourceSpecificData string    `json:"source_specific_data"`
}

// Client talks to the order analytics HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope mirrors the API's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) (int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope

	if err := json.Unmarshal(body, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("invalid response body: %w", err)
	}

	if !env.Success {
		return resp.StatusCode, fmt.Errorf("api error: %s", env.Error)
	}

	if dest != nil {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// CreateTaskRequest is the payload for submitting an import task.
type CreateTaskRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	DateFrom          string   `json:"date_from,omitempty"`
	DateTo            string   `json:"date_to,omitempty"`
	SourceAEnabled    bool     `json:"source_a_enabled"`
	SourceBEnabled    bool     `json:"source_b_enabled"`
	SourceACategories []string `json:"source_a_categories,omitempty"`
	SourceBCategories []string `json:"source_b_categories,omitempty"`
}

// CreateTask submits a new import task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	payload, err := json.Marshal(req)

	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tasks", bytes.NewReader(payload))

	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope

	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid response body: %w", err)
	}

	if !env.Success {
		return nil, fmt.Errorf("api error: %s", env.Error)
	}

	var task Task

	if err := json.Unmarshal(env.Data, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}

	return &task, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task Task

	if _, err := c.get(ctx, "/api/tasks/"+id, nil, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

// ListTasks fetches tasks newest first.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task

	if _, err := c.get(ctx, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

// ResultKind tags an OrdersResult.
type ResultKind int

const (
	// ResultOk means the task exists and its orders were returned.
	ResultOk ResultKind = iota
	// ResultEmpty means the task has no data yet. A 404 maps here: while a
	// task is still importing, its data simply isn't there yet.
	ResultEmpty
	// ResultError means the request itself failed.
	ResultError
)

// OrdersResult is the outcome of fetching a task's orders. Exactly one of
// Orders or Err is meaningful, selected by Kind.
type OrdersResult struct {
	Kind   ResultKind
	Orders []Order
	Err    error
}

// OrdersQuery narrows and sorts the returned orders.
type OrdersQuery struct {
	DateRange string // "all", "30days", or "custom"
	StartDate string
	EndDate   string
	Source    string
	Category  string
	SortBy    string
	SortDir   string
}

func (q OrdersQuery) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("date_range", q.DateRange)
	set("start_date", q.StartDate)
	set("end_date", q.EndDate)
	set("source", q.Source)
	set("category", q.Category)
	set("sort_by", q.SortBy)
	set("sort_dir", q.SortDir)
	return v
}

// GetTaskOrders fetches the orders a task imported. The result is tagged:
// callers branch on Kind instead of sniffing errors for a 404.
func (c *Client) GetTaskOrders(ctx context.Context, taskID string, query OrdersQuery) OrdersResult {
	var orders []Order

	status, err := c.get(ctx, "/api/tasks/"+taskID+"/data", query.values(), &orders)

	if status == http.StatusNotFound {
		return OrdersResult{Kind: ResultEmpty}
	}
	if err != nil {
		return OrdersResult{Kind: ResultError, Err: err}
	}
	if len(orders) == 0 {
		return OrdersResult{Kind: ResultEmpty}
	}

	return OrdersResult{Kind: ResultOk, Orders: orders}
}
