package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/constants"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/metrics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
)

const (
	// HealthCheckTimeout is the default timeout for health check operations.
	HealthCheckTimeout = 5 * time.Second
	// SlowStoreThreshold marks a Redis ping as degraded.
	SlowStoreThreshold = time.Second
)

// HealthHandler provides health check and monitoring endpoints.
type HealthHandler struct {
	config    *config.Config
	store     redis.Store
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	scrape    http.Handler
	startTime time.Time
}

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	// StatusHealthy indicates the component is healthy.
	StatusHealthy HealthStatus = "healthy"
	// StatusUnhealthy indicates the component is unhealthy.
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded indicates the component has degraded performance.
	StatusDegraded HealthStatus = "degraded"
)

// HealthResponse represents the overall health check response.
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Details    map[string]interface{}     `json:"details,omitempty"`
}

// ComponentHealth represents the health of an individual component.
type ComponentHealth struct {
	Status       HealthStatus `json:"status"`
	Message      string       `json:"message,omitempty"`
	LastChecked  time.Time    `json:"last_checked"`
	ResponseTime string       `json:"response_time,omitempty"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Ready      bool                       `json:"ready"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// NewHealthHandler creates a new health check handler. scrape serves the
// Prometheus exposition; nil uses promhttp.Handler.
func NewHealthHandler(
	cfg *config.Config,
	store redis.Store,
	logger *logrus.Logger,
	m *metrics.Metrics,
	scrape http.Handler,
) *HealthHandler {
	if scrape == nil {
		scrape = promhttp.Handler()
	}
	return &HealthHandler{
		config:    cfg,
		store:     store,
		logger:    logger,
		metrics:   m,
		scrape:    scrape,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers health check and monitoring endpoints under r.
func (h *HealthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/health/live", h.Liveness).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", h.Readiness).Methods(http.MethodGet)
	r.Handle("/metrics", h.scrape).Methods(http.MethodGet)
}

// Health reports the status of the store and the configuration.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	components := make(map[string]ComponentHealth)
	overallStatus := StatusHealthy

	// The engine degrades to fallbacks without the store, so it never makes us unhealthy.
	storeHealth := h.checkStorage(r.Context())
	components["store"] = storeHealth
	if storeHealth.Status != StatusHealthy {
		overallStatus = StatusDegraded
	}

	configHealth := h.checkConfiguration()
	components["configuration"] = configHealth
	if configHealth.Status != StatusHealthy {
		overallStatus = StatusDegraded
	}

	h.metrics.HealthCheck("health", string(overallStatus))
	for component, health := range components {
		h.metrics.ComponentHealth(component, health.Status == StatusHealthy)
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Version:    getVersion(),
		Uptime:     time.Since(h.startTime).String(),
		Components: components,
		Details: map[string]interface{}{
			"check_duration": time.Since(start).String(),
			"storage_type":   h.getStorageType(),
		},
	}

	h.writeJSON(w, http.StatusOK, response)

	h.logger.WithFields(logrus.Fields{
		"status":   overallStatus,
		"duration": time.Since(start).String(),
	}).Debug("Health check completed")
}

// Liveness returns 200 while the process is serving requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	h.metrics.HealthCheck("liveness", string(StatusHealthy))

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// Readiness returns 503 when the store cannot be reached.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	storeHealth := h.checkStorage(r.Context())
	ready := storeHealth.Status != StatusUnhealthy

	statusLabel := "ready"
	statusCode := http.StatusOK
	if !ready {
		statusLabel = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}
	h.metrics.HealthCheck("readiness", statusLabel)

	h.writeJSON(w, statusCode, ReadinessResponse{
		Ready:      ready,
		Timestamp:  time.Now(),
		Components: map[string]ComponentHealth{"store": storeHealth},
	})
}

// checkStorage pings the store within HealthCheckTimeout.
func (h *HealthHandler) checkStorage(ctx context.Context) ComponentHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	err := h.store.Ping(checkCtx)
	duration := time.Since(start)
	storageType := h.getStorageType()

	if err != nil {
		h.logger.WithError(err).Warn("Storage health check failed")
		return ComponentHealth{
			Status:       StatusUnhealthy,
			Message:      storageType + " connection failed: " + err.Error(),
			LastChecked:  time.Now(),
			ResponseTime: duration.String(),
		}
	}

	status := StatusHealthy
	message := storageType + " is healthy"
	if storageType == "Redis" && duration > SlowStoreThreshold {
		status = StatusDegraded
		message = "Redis response time is slow"
	}

	return ComponentHealth{
		Status:       status,
		Message:      message,
		LastChecked:  time.Now(),
		ResponseTime: duration.String(),
	}
}

func (h *HealthHandler) getStorageType() string {
	switch h.store.(type) {
	case *redis.Client:
		return "Redis"
	case *redis.MemoryStore:
		return "In-Memory"
	default:
		return "Unknown"
	}
}

// checkConfiguration flags settings that make the metrics endpoint misbehave.
func (h *HealthHandler) checkConfiguration() ComponentHealth {
	var issues []string

	if h.config.Analytics.CacheControl == "" {
		issues = append(issues, "cache control is empty")
	}
	if h.config.Security.RateLimitRPS == 0 {
		issues = append(issues, "rate limiting is disabled")
	}
	if h.config.Environment.Environment == config.Prod && containsWildcard(h.config.Security.AllowedOrigins) {
		issues = append(issues, "wildcard CORS origin in production")
	}

	status := StatusHealthy
	message := "Configuration is valid"
	if len(issues) > 0 {
		status = StatusDegraded
		message = "Configuration issues: " + strings.Join(issues, ", ")
	}

	return ComponentHealth{
		Status:      status,
		Message:     message,
		LastChecked: time.Now(),
	}
}

func (h *HealthHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("Failed to encode health response")
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// version is overridden at build time with -ldflags "-X ...handlers.version=...".
var version = "1.0.0"

func getVersion() string {
	return version
}
