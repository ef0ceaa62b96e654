package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/ecomdash/order-analytics/pkg/logger"
	"github.com/ecomdash/order-analytics/pkg/ratelimit"
)

// RateLimiterMiddleware applies per-client rate limiting to incoming requests
type RateLimiterMiddleware struct {
	ipLimiter         *ratelimit.IPRateLimiter
	logger            logger.Logger
	trustForwardedFor bool
	onReject          func()
}

// RateLimiterConfig configures the rate limiter middleware
type RateLimiterConfig struct {
	IPMaxTokens       float64
	IPRefillRate      float64
	TrustForwardedFor bool
	// OnReject is invoked for every rejected request, e.g. to bump a metric.
	OnReject func()
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(cfg *RateLimiterConfig, logger logger.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		ipLimiter:         ratelimit.NewIPRateLimiter(cfg.IPMaxTokens, cfg.IPRefillRate),
		logger:            logger,
		trustForwardedFor: cfg.TrustForwardedFor,
		onReject:          cfg.OnReject,
	}
}

// Middleware wraps an HTTP handler with rate limiting
func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := m.clientIP(r)

		if !m.ipLimiter.Allow(ip) {
			m.logger.Warn("Request rate limited", "ip", ip, "path", r.URL.Path)

			if m.onReject != nil {
				m.onReject()
			}

			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop releases the limiter's background resources
func (m *RateLimiterMiddleware) Stop() {
	m.ipLimiter.Stop()
}

func (m *RateLimiterMiddleware) clientIP(r *http.Request) string {
	if m.trustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			// First address in the list is the originating client.
			parts := strings.Split(fwd, ",")
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)

	if err != nil {
		return r.RemoteAddr
	}

	return host
}
