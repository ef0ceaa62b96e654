package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ecomdash/order-analytics/internal/analytics"
	"github.com/ecomdash/order-analytics/internal/models"
	"github.com/ecomdash/order-analytics/internal/repository"
	"github.com/ecomdash/order-analytics/internal/service"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// createTaskRequest is the payload accepted when submitting an import task.
// Dates are date-only or RFC3339 strings.
type createTaskRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	DateFrom          string   `json:"date_from"`
	DateTo            string   `json:"date_to"`
	SourceAEnabled    bool     `json:"source_a_enabled"`
	SourceBEnabled    bool     `json:"source_b_enabled"`
	SourceACategories []string `json:"source_a_categories"`
	SourceBCategories []string `json:"source_b_categories"`
}

func parseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}

	return nil, errors.New("invalid date: " + s)
}

// createTaskHandler submits a new import task
func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Title == "" {
		s.respondWithError(w, http.StatusBadRequest, "Title is required")
		return
	}

	if !req.SourceAEnabled && !req.SourceBEnabled {
		s.respondWithError(w, http.StatusBadRequest, "At least one source must be enabled")
		return
	}

	dateFrom, err := parseDateParam(req.DateFrom)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	dateTo, err := parseDateParam(req.DateTo)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if dateFrom != nil && dateTo != nil && dateTo.Before(*dateFrom) {
		s.respondWithError(w, http.StatusBadRequest, "date_to must not precede date_from")
		return
	}

	task, err := s.taskService.CreateTask(r.Context(), service.CreateTaskInput{
		Title:             req.Title,
		Description:       req.Description,
		DateFrom:          dateFrom,
		DateTo:            dateTo,
		SourceAEnabled:    req.SourceAEnabled,
		SourceBEnabled:    req.SourceBEnabled,
		SourceACategories: req.SourceACategories,
		SourceBCategories: req.SourceBCategories,
	})

	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    task,
	})
}

// getTasksHandler lists tasks newest first
func (s *Server) getTasksHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	tasks, err := s.taskService.ListTasks(r.Context(), limit, offset)

	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to list tasks")
		return
	}

	if tasks == nil {
		tasks = []*models.Task{}
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    tasks,
	})
}

// getTaskByIDHandler returns a task by ID
func (s *Server) getTaskByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	task, err := s.taskService.GetTask(r.Context(), id)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Task not found")
			return
		}
		s.respondWithError(w, http.StatusInternalServerError, "Failed to get task")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    task,
	})
}

// getTaskOrdersHandler returns the orders a task imported, optionally
// filtered and sorted for the dashboard table.
func (s *Server) getTaskOrdersHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.taskService.GetTask(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Task not found")
			return
		}
		s.respondWithError(w, http.StatusInternalServerError, "Failed to get task")
		return
	}

	orders, err := s.orderRepo.GetByTaskID(r.Context(), id)

	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to get orders")
		return
	}

	filter, err := parseFilter(r)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders = analytics.Apply(orders, filter)

	if field := r.URL.Query().Get("sort_by"); field != "" {
		orders = analytics.SortOrders(orders, field, parseDirection(r))
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    orders,
	})
}

// getOrdersHandler lists imported orders across all tasks
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	orders, err := s.orderRepo.GetAll(r.Context(), limit, offset)

	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	// An empty listing renders as [] rather than null.
	if orders == nil {
		orders = []models.Order{}
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    orders,
	})
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	offset = 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= maxPageLimit {
			limit = v
		}
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	return limit, offset
}
