// Package middleware provides HTTP middleware components for the analytics service
// including rate limiting, CORS, request logging, metrics, and security headers.
package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/constants"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/metrics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/pkg/logger"
)

const (
	// HTTPClientError minimum status code (4xx).
	HTTPClientError = 400
	// HTTPServerError minimum status code (5xx).
	HTTPServerError = 500
	// RateLimitKeyPrefix namespaces per-client limiter buckets in Redis.
	RateLimitKeyPrefix = "analytics:ratelimit:client:"
	// HealthPathPrefix marks probe routes that are not request-logged.
	HealthPathPrefix = "/api/v1/analytics/health"
	// unmatchedRoute labels requests that did not match a registered route.
	unmatchedRoute = "unmatched"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Stack holds all middleware dependencies and provides
// methods to create HTTP middleware handlers.
type Stack struct {
	config  *config.Config
	limiter *redis_rate.Limiter
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewStack creates a new middleware stack with the provided dependencies.
// redisClient is optional and only used for rate limiting; when nil (the
// in-memory fallback) rate limiting is disabled.
func NewStack(cfg *config.Config, redisClient *redis.Client, logger *logrus.Logger, m *metrics.Metrics) *Stack {
	var limiter *redis_rate.Limiter
	if redisClient != nil && cfg.Security.RateLimitRPS > 0 {
		limiter = redis_rate.NewLimiter(redisClient)
	}

	return &Stack{
		config:  cfg,
		limiter: limiter,
		logger:  logger,
		metrics: m,
	}
}

// Chain applies multiple middleware functions to an HTTP handler. The first
// middleware is the outermost.
func (m *Stack) Chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := range middleware {
		h = middleware[len(middleware)-1-i](h)
	}
	return h
}

// RequestID returns the request ID stored by RequestLogger, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestLogger assigns a request ID, propagates it as the correlation ID and
// logs the request outcome.
func (m *Stack) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := incomingRequestID(r)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = logger.SetCorrelationID(ctx, requestID)
		r = r.WithContext(ctx)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		wrapped.Header().Set(constants.HeaderXRequestID, requestID)

		next.ServeHTTP(wrapped, r)

		if strings.HasPrefix(r.URL.Path, HealthPathPrefix) {
			return
		}

		duration := time.Since(start)
		fields := logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"status":      wrapped.statusCode,
			"duration":    duration.String(),
			"duration_ms": duration.Milliseconds(),
			"remote_addr": getClientIP(r),
			"user_agent":  r.UserAgent(),
		}

		level := logrus.InfoLevel
		if wrapped.statusCode >= HTTPClientError {
			level = logrus.WarnLevel
		}
		if wrapped.statusCode >= HTTPServerError {
			level = logrus.ErrorLevel
		}

		logger.WithCorrelationID(r.Context(), m.logger).WithFields(fields).Log(level, "HTTP request processed")
	})
}

// Instrument records request counts and latency per route template. It is meant
// for mux.Router.Use so the matched route is known.
func (m *Stack) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.metrics.ObserveHTTP(r.Method, routeTemplate(r), wrapped.statusCode, time.Since(start))
	})
}

// RateLimit implements Redis-based rate limiting per client IP address.
func (m *Stack) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)

		if m.limiter == nil || m.isTrustedProxy(clientIP) {
			next.ServeHTTP(w, r)
			return
		}

		result, err := m.limiter.Allow(r.Context(), RateLimitKeyPrefix+clientIP,
			redis_rate.PerSecond(m.config.Security.RateLimitRPS))
		if err != nil {
			// Fail open
			m.logger.WithError(err).Error("Failed to check rate limit")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-Ratelimit-Limit", strconv.Itoa(result.Limit.Burst))
		w.Header().Set("X-Ratelimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-Ratelimit-Reset", strconv.FormatInt(time.Now().Add(result.ResetAfter).Unix(), 10))

		if result.Allowed == 0 {
			logger.WithCorrelationID(r.Context(), m.logger).WithFields(logrus.Fields{
				"client_ip": clientIP,
				"path":      r.URL.Path,
			}).Warn("Rate limit exceeded")

			w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			m.writeError(w, models.ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CORS handles Cross-Origin Resource Sharing headers based on configuration.
func (m *Stack) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.setCORSHeaders(w, r)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Stack) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	sec := m.config.Security

	if origin != "" && m.isOriginAllowed(origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	} else if len(sec.AllowedOrigins) == 1 && sec.AllowedOrigins[0] == "*" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}

	if len(sec.AllowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(sec.AllowedMethods, ", "))
	}
	if len(sec.AllowedHeaders) > 0 {
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(sec.AllowedHeaders, ", "))
	}
	if sec.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(sec.MaxAge))
	}
}

// SecurityHeaders adds security-related HTTP headers to responses.
func (m *Stack) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// JSON only
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Recovery recovers from panics and logs them while returning a proper error response.
func (m *Stack) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithCorrelationID(r.Context(), m.logger).WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  err,
				}).Error("Panic recovered")

				m.writeError(w, models.NewServerError("An unexpected error occurred"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (m *Stack) writeError(w http.ResponseWriter, apiErr *models.APIError) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(apiErr.StatusCode)

	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		m.logger.WithError(err).Error("Failed to encode error response")
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter

	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// incomingRequestID reuses a well-formed X-Request-ID from the caller or mints one.
func incomingRequestID(r *http.Request) string {
	if id := r.Header.Get(constants.HeaderXRequestID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}

// getClientIP extracts the real client IP address from proxy headers or RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get(constants.HeaderXRealIP); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (m *Stack) isTrustedProxy(ip string) bool {
	for _, trustedIP := range m.config.Security.TrustedProxies {
		if ip == trustedIP {
			return true
		}
	}
	return false
}

func (m *Stack) isOriginAllowed(origin string) bool {
	for _, allowedOrigin := range m.config.Security.AllowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}
	return false
}
