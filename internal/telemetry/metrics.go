package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	TasksProcessed   = prometheus.NewCounter(prometheus.CounterOpts{Name: "import_tasks_processed_total", Help: "Import tasks completed successfully"})
	TasksFailed      = prometheus.NewCounter(prometheus.CounterOpts{Name: "import_tasks_failed_total", Help: "Import task runs that failed and were reverted"})
	OrdersImported   = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_imported_total", Help: "Orders persisted across all tasks"})
	SourceFetchFails = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "source_fetch_failures_total", Help: "Upstream fetch failures by source"}, []string{"source"})
	EventsPublished  = prometheus.NewCounter(prometheus.CounterOpts{Name: "outbox_events_published_total", Help: "Outbox events delivered to Kafka"})
	RateLimitRejects = prometheus.NewCounter(prometheus.CounterOpts{Name: "api_rate_limit_rejects_total", Help: "Requests rejected by the rate limiter"})
	CacheHits        = prometheus.NewCounter(prometheus.CounterOpts{Name: "analytics_cache_hits_total", Help: "Analytics responses served from cache"})
	CacheMisses      = prometheus.NewCounter(prometheus.CounterOpts{Name: "analytics_cache_misses_total", Help: "Analytics responses computed from the database"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			TasksProcessed,
			TasksFailed,
			OrdersImported,
			SourceFetchFails,
			EventsPublished,
			RateLimitRejects,
			CacheHits,
			CacheMisses,
		)
	})
	return promhttp.Handler()
}
