package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ecomdash/order-analytics/internal/analytics"
	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/internal/repository"
)

// parseFilter builds an order filter from query parameters. date_range is
// one of all, 30days, or custom; a custom range reads start_date/end_date.
func parseFilter(r *http.Request) (analytics.Filter, error) {
	q := r.URL.Query()
	filter := analytics.Filter{}

	switch q.Get("date_range") {
	case "", "all":
		filter.Dates = analytics.AllTime{}
	case "30days":
		filter.Dates = analytics.Last30Days{}
	case "custom":
		start, err := parseDateParam(q.Get("start_date"))
		if err != nil {
			return filter, err
		}
		end, err := parseDateParam(q.Get("end_date"))
		if err != nil {
			return filter, err
		}

		custom := analytics.CustomRange{}
		if start != nil {
			custom.Start = *start
		}
		if end != nil {
			// A date-only bound covers the whole day.
			custom.End = end.Add(24*time.Hour - time.Nanosecond)
		}
		filter.Dates = custom
	default:
		return filter, fmt.Errorf("invalid date_range: %s", q.Get("date_range"))
	}

	switch source := q.Get("source"); source {
	case "", "all":
	case string(models.SourceA), string(models.SourceB):
		filter.Source = models.Source(source)
	default:
		return filter, fmt.Errorf("invalid source: %s", source)
	}

	filter.Category = q.Get("category")

	return filter, nil
}

func parseDirection(r *http.Request) analytics.Direction {
	if r.URL.Query().Get("sort_dir") == "desc" {
		return analytics.Descending
	}
	return analytics.Ascending
}

func parseMetric(r *http.Request) (analytics.Metric, error) {
	switch metric := r.URL.Query().Get("metric"); metric {
	case "", "amount":
		return analytics.MetricAmount, nil
	case "count":
		return analytics.MetricCount, nil
	default:
		return "", fmt.Errorf("invalid metric: %s", metric)
	}
}

// loadTaskOrders fetches a task's orders, writing the error response itself
// on failure. The bool reports whether the caller should proceed.
func (s *Server) loadTaskOrders(w http.ResponseWriter, r *http.Request) (string, []models.Order, bool) {
	id := mux.Vars(r)["id"]

	if _, err := s.taskService.GetTask(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Task not found")
			return "", nil, false
		}
		s.respondWithError(w, http.StatusInternalServerError, "Failed to get task")
		return "", nil, false
	}

	orders, err := s.orderRepo.GetByTaskID(r.Context(), id)

	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to get orders")
		return "", nil, false
	}

	return id, orders, true
}

// serveCached responds from the analytics cache when possible, otherwise
// computes the view and stores it.
func (s *Server) serveCached(ctx context.Context, w http.ResponseWriter, taskID, view, key string, compute func() interface{}) {
	var cached interface{}

	if hit, _ := s.analyticsCache.Get(ctx, taskID, view, key, &cached); hit {
		s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: cached})
		return
	}

	result := compute()
	s.analyticsCache.Set(ctx, taskID, view, key, result)

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result})
}

// getTaskStatsHandler returns the dashboard summary for a task
func (s *Server) getTaskStatsHandler(w http.ResponseWriter, r *http.Request) {
	taskID, orders, ok := s.loadTaskOrders(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.serveCached(r.Context(), w, taskID, "stats", filter.Key(), func() interface{} {
		return analytics.ComputeStats(analytics.Apply(orders, filter))
	})
}

// getTaskTimeSeriesHandler returns sales per day split by source. The source
// query parameter narrows the series columns; date and category filters
// narrow the input.
func (s *Server) getTaskTimeSeriesHandler(w http.ResponseWriter, r *http.Request) {
	taskID, orders, ok := s.loadTaskOrders(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := filter.Source
	filter.Source = ""

	s.serveCached(r.Context(), w, taskID, "timeseries", filter.Key()+"|"+string(source), func() interface{} {
		return analytics.TimeSeries(analytics.Apply(orders, filter), source)
	})
}

// getTaskCategoriesHandler returns the per-category chart. The category set
// always comes from the full date-filtered input, so a source filter keeps
// zero bars for the other platform's categories.
func (s *Server) getTaskCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	taskID, orders, ok := s.loadTaskOrders(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	metric, err := parseMetric(r)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := filter.Source
	filter.Source = ""

	key := fmt.Sprintf("%s|%s|%s", filter.Key(), source, metric)

	s.serveCached(r.Context(), w, taskID, "categories", key, func() interface{} {
		return analytics.CategoryBuckets(analytics.Apply(orders, filter), source, metric)
	})
}

// getTaskDistributionHandler returns category proportions for a pie chart
func (s *Server) getTaskDistributionHandler(w http.ResponseWriter, r *http.Request) {
	taskID, orders, ok := s.loadTaskOrders(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	metric, err := parseMetric(r)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := filter.Source
	filter.Source = ""

	key := fmt.Sprintf("%s|%s|%s", filter.Key(), source, metric)

	s.serveCached(r.Context(), w, taskID, "distribution", key, func() interface{} {
		return analytics.Distribution(analytics.Apply(orders, filter), source, metric)
	})
}

// getTaskPerformanceHandler returns the per-source rollup
func (s *Server) getTaskPerformanceHandler(w http.ResponseWriter, r *http.Request) {
	taskID, orders, ok := s.loadTaskOrders(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The rollup always shows both sources side by side.
	filter.Source = ""

	s.serveCached(r.Context(), w, taskID, "performance", filter.Key(), func() interface{} {
		return analytics.SourceRollup(analytics.Apply(orders, filter))
	})
}
