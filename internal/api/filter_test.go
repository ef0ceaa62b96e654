package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecomdash/order-analytics/internal/analytics"
	"github.com/ecomdash/order-analytics/internal/models"
)

func TestParseFilterDefaultsToAllTime(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/tasks/t1/stats", nil)

	filter, err := parseFilter(r)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := filter.Dates.(analytics.AllTime); !ok {
		t.Errorf("dates = %T, want AllTime", filter.Dates)
	}
	if filter.Source != "" || filter.Category != "" {
		t.Errorf("filter = %+v, want empty source and category", filter)
	}
}

func TestParseFilterLast30Days(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?date_range=30days&source=source_a&category=Books", nil)

	filter, err := parseFilter(r)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := filter.Dates.(analytics.Last30Days); !ok {
		t.Errorf("dates = %T, want Last30Days", filter.Dates)
	}
	if filter.Source != models.SourceA {
		t.Errorf("source = %q", filter.Source)
	}
	if filter.Category != "Books" {
		t.Errorf("category = %q", filter.Category)
	}
}

func TestParseFilterCustomRangeCoversWholeEndDay(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?date_range=custom&start_date=2024-01-01&end_date=2024-01-31", nil)

	filter, err := parseFilter(r)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	custom, ok := filter.Dates.(analytics.CustomRange)
	if !ok {
		t.Fatalf("dates = %T, want CustomRange", filter.Dates)
	}

	lastMoment := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)
	if !custom.Includes(lastMoment, time.Now()) {
		t.Error("an order late on the end date should be included")
	}

	nextDay := time.Date(2024, 2, 1, 0, 0, 1, 0, time.UTC)
	if custom.Includes(nextDay, time.Now()) {
		t.Error("an order after the end date should be excluded")
	}
}

func TestParseFilterRejectsBadInput(t *testing.T) {
	for _, url := range []string{
		"/x?date_range=yesterday",
		"/x?date_range=custom&start_date=January",
		"/x?source=source_c",
	} {
		r := httptest.NewRequest("GET", url, nil)
		if _, err := parseFilter(r); err == nil {
			t.Errorf("expected error for %s", url)
		}
	}
}

func TestParseMetric(t *testing.T) {
	r := httptest.NewRequest("GET", "/x", nil)
	if m, err := parseMetric(r); err != nil || m != analytics.MetricAmount {
		t.Errorf("default metric = %q, err = %v", m, err)
	}

	r = httptest.NewRequest("GET", "/x?metric=count", nil)
	if m, err := parseMetric(r); err != nil || m != analytics.MetricCount {
		t.Errorf("metric = %q, err = %v", m, err)
	}

	r = httptest.NewRequest("GET", "/x?metric=median", nil)
	if _, err := parseMetric(r); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestParsePaginationBounds(t *testing.T) {
	r := httptest.NewRequest("GET", "/x", nil)
	limit, offset := parsePagination(r)
	if limit != defaultPageLimit || offset != 0 {
		t.Errorf("defaults = %d/%d", limit, offset)
	}

	r = httptest.NewRequest("GET", "/x?limit=50&offset=10", nil)
	limit, offset = parsePagination(r)
	if limit != 50 || offset != 10 {
		t.Errorf("parsed = %d/%d", limit, offset)
	}

	// Out-of-range values fall back to the defaults.
	r = httptest.NewRequest("GET", "/x?limit=100000&offset=-5", nil)
	limit, offset = parsePagination(r)
	if limit != defaultPageLimit || offset != 0 {
		t.Errorf("clamped = %d/%d", limit, offset)
	}
}
