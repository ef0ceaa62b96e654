// Package api wires the HTTP surface of the analytics service: task
// submission and inspection, order listings, and the aggregated dashboard
// views.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ecomdash/order-analytics/internal/cache"
	"github.com/ecomdash/order-analytics/internal/config"
	"github.com/ecomdash/order-analytics/internal/database"
	"github.com/ecomdash/order-analytics/internal/handlers"
	"github.com/ecomdash/order-analytics/internal/outbox"
	"github.com/ecomdash/order-analytics/internal/repository"
	"github.com/ecomdash/order-analytics/internal/service"
	"github.com/ecomdash/order-analytics/internal/sources"
	"github.com/ecomdash/order-analytics/internal/tasks"
	"github.com/ecomdash/order-analytics/internal/telemetry"
	"github.com/ecomdash/order-analytics/pkg/kafka"
	"github.com/ecomdash/order-analytics/pkg/logger"
	"github.com/ecomdash/order-analytics/pkg/middleware"
)

type Server struct {
	config          *config.Config
	logger          logger.Logger
	router          *mux.Router
	httpServer      *http.Server
	db              *database.Database
	taskRepo        *repository.TaskRepository
	orderRepo       *repository.OrderRepository
	outboxRepo      *repository.OutboxRepository
	taskService     *service.TaskService
	taskProcessor   *tasks.Processor
	outboxProcessor *outbox.Processor
	analyticsCache  *cache.AnalyticsCache
	kafkaProducer   *kafka.Producer
	kafkaConsumer   *kafka.Consumer
	rateLimiter     *middleware.RateLimiterMiddleware
}

// NewServer creates a new API server with the given configuration and logger.
func NewServer(cfg *config.Config, logger logger.Logger) (*Server, error) {
	r := mux.NewRouter()

	db, err := database.New(cfg, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db, logger)
	orderRepo := repository.NewOrderRepository(db, logger)
	outboxRepo := repository.NewOutboxRepository(db, logger)

	taskService := service.NewTaskService(taskRepo, outboxRepo, logger)

	analyticsCache := cache.New(
		cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB),
		cfg.Redis.CacheTTL,
		logger,
	)

	fetchers := []sources.Fetcher{
		sources.NewSourceAClient(cfg.Sources.SourceAURL, logger),
		sources.NewSourceBClient(cfg.Sources.SourceBURL, logger),
	}

	taskProcessor := tasks.NewProcessor(taskRepo, orderRepo, outboxRepo, fetchers, tasks.ProcessorConfig{
		PollingInterval: cfg.Processor.PollingInterval,
		BatchSize:       cfg.Processor.BatchSize,
		MaxAttempts:     cfg.Processor.MaxAttempts,
	}, logger)

	outboxProcessor := outbox.NewProcessor(outboxRepo, outbox.ProcessorConfig{
		PollingInterval: 5 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
	}, logger)

	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	kafkaHandler := outbox.NewKafkaHandler(kafkaProducer, cfg.Kafka.EventsTopic, logger)
	outboxProcessor.RegisterHandler("task_created", kafkaHandler)
	outboxProcessor.RegisterHandler("orders_imported", kafkaHandler)

	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.EventsTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	importEventsHandler := handlers.NewImportEventsHandler(analyticsCache, logger)
	kafkaConsumer.RegisterHandler(cfg.Kafka.EventsTopic, importEventsHandler)

	rateLimiter := middleware.NewRateLimiterMiddleware(&middleware.RateLimiterConfig{
		IPMaxTokens:       cfg.RateLimit.IPMaxTokens,
		IPRefillRate:      cfg.RateLimit.IPRefillRate,
		TrustForwardedFor: cfg.RateLimit.TrustForwardedFor,
		OnReject:          telemetry.RateLimitRejects.Inc,
	}, logger)

	server := &Server{
		config: cfg,
		logger: logger,
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		db:              db,
		taskRepo:        taskRepo,
		orderRepo:       orderRepo,
		outboxRepo:      outboxRepo,
		taskService:     taskService,
		taskProcessor:   taskProcessor,
		outboxProcessor: outboxProcessor,
		analyticsCache:  analyticsCache,
		kafkaProducer:   kafkaProducer,
		kafkaConsumer:   kafkaConsumer,
		rateLimiter:     rateLimiter,
	}

	server.setupRoutes()

	taskProcessor.Start()
	outboxProcessor.Start()

	if err := kafkaConsumer.Start(); err != nil {
		logger.Error("Failed to start Kafka consumer", "error", err)
		// Non-fatal, cached views just go stale until their TTL.
	}

	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.taskProcessor.Stop()
	s.outboxProcessor.Stop()
	s.rateLimiter.Stop()

	if s.kafkaConsumer != nil {
		if err := s.kafkaConsumer.Stop(); err != nil {
			s.logger.Error("Error stopping Kafka consumer", "error", err)
		}
	}

	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.Close(); err != nil {
			s.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	if err := s.analyticsCache.Close(); err != nil {
		s.logger.Error("Error closing Redis connection", "error", err)
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for our API
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimiter.Middleware)

	s.router.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	api.HandleFunc("/tasks", s.getTasksHandler).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.createTaskHandler).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.getTaskByIDHandler).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/data", s.getTaskOrdersHandler).Methods(http.MethodGet)

	api.HandleFunc("/tasks/{id}/stats", s.getTaskStatsHandler).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/timeseries", s.getTaskTimeSeriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/categories", s.getTaskCategoriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/distribution", s.getTaskDistributionHandler).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/performance", s.getTaskPerformanceHandler).Methods(http.MethodGet)

	api.HandleFunc("/orders", s.getOrdersHandler).Methods(http.MethodGet)
}

// loggingMiddleware logs every processed request
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}
