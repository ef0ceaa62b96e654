package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/pkg/logger"
)

func windowedTask() *models.Task {
	task := models.NewTask("import", "test import")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	task.DateFrom = &from
	task.DateTo = &to
	task.SourceAEnabled = true
	task.SourceBEnabled = true
	return task
}

func TestSourceAFetchFiltersWindowAndCategory(t *testing.T) {
	payload := `[
		{"order_id":"A-1","product_name":"Laptop","product_category":"Electronics","quantity":1,"unit_price":900,"total_amount":900,"order_date":"2024-01-10T12:00:00Z","customer_id":"c1","customer_country":"USA","source_specific_data":{"shop_name":"Shop_1"}},
		{"order_id":"A-2","product_name":"Old Laptop","product_category":"Electronics","quantity":1,"unit_price":700,"total_amount":700,"order_date":"2023-06-01T12:00:00Z","customer_id":"c2","customer_country":"USA"},
		{"order_id":"A-3","product_name":"Novel","product_category":"Books","quantity":2,"unit_price":10,"total_amount":20,"order_date":"2024-01-15T08:00:00Z","customer_id":"c3","customer_country":"UK"},
		{"order_id":"A-4","product_name":"Broken","product_category":"Electronics","quantity":1,"unit_price":5,"total_amount":5,"order_date":"not-a-date","customer_id":"c4","customer_country":"UK"}
	]`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	task := windowedTask()
	task.SourceACategories = []string{"Electronics"}

	client := NewSourceAClient(server.URL, logger.Nop())
	orders, err := client.Fetch(context.Background(), task)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A-2 is outside the window, A-3 is the wrong category, A-4 has a bad date.
	if len(orders) != 1 {
		t.Fatalf("kept %d orders, want 1", len(orders))
	}

	got := orders[0]
	if got.OrderID != "A-1" || got.Source != models.SourceA || got.TaskID != task.ID {
		t.Errorf("order = %+v", got)
	}
	if got.TotalAmount != 900 || got.Quantity != 1 {
		t.Errorf("numeric fields = %v/%d", got.TotalAmount, got.Quantity)
	}
	if got.SourceSpecificData == "" {
		t.Error("source specific payload should be carried through verbatim")
	}
}

func TestSourceAFetchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewSourceAClient(server.URL, logger.Nop())

	if _, err := client.Fetch(context.Background(), windowedTask()); err == nil {
		t.Fatal("expected error on non-200 upstream response")
	}
}

func TestSourceBFetchParsesCSV(t *testing.T) {
	payload := "order_id,product_name,product_category,quantity,unit_price,total_amount,order_date,customer_id,customer_country,source_specific_data\n" +
		"B-1,T-Shirt,Clothing,2,24.99,49.98,2024-01-05T10:00:00Z,c9,Canada,\"{\"\"store_id\"\":\"\"STORE_7\"\"}\"\n" +
		"B-2,Mug,Home,bad,5.00,5.00,2024-01-06T10:00:00Z,c10,Canada,\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewSourceBClient(server.URL, logger.Nop())
	orders, err := client.Fetch(context.Background(), windowedTask())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// B-2 has a non-numeric quantity and is skipped.
	if len(orders) != 1 {
		t.Fatalf("kept %d orders, want 1", len(orders))
	}
	if orders[0].OrderID != "B-1" || orders[0].Source != models.SourceB {
		t.Errorf("order = %+v", orders[0])
	}
	if orders[0].UnitPrice != 24.99 || orders[0].Quantity != 2 {
		t.Errorf("numeric fields = %v/%d", orders[0].UnitPrice, orders[0].Quantity)
	}
}

func TestTaskWindowDefaultsToLast30Days(t *testing.T) {
	task := models.NewTask("defaults", "")

	start, end := taskWindow(task)

	if !end.After(start) {
		t.Fatal("window end should be after start")
	}

	span := end.Sub(start)
	if span < 29*24*time.Hour || span > 31*24*time.Hour {
		t.Fatalf("default window span = %s, want about 30 days", span)
	}
}

func TestParseOrderDateLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-01-05T10:00:00Z",
		"2024-01-05T10:00:00",
		"2024-01-05 10:00:00",
		"2024-01-05",
	} {
		if _, ok := parseOrderDate(s); !ok {
			t.Errorf("failed to parse %q", s)
		}
	}

	if _, ok := parseOrderDate("05/01/2024"); ok {
		t.Error("unexpected layout should not parse")
	}
}
