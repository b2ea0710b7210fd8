package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/handlers"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/metrics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/pkg/logger"
)

// downStore is a Store whose ping always fails.
type downStore struct {
	redis.Store
}

func (downStore) Ping(_ context.Context) error { return errors.New("connection refused") }

func newHealthRouter(t *testing.T, store redis.Store, cfg *config.Config) (*mux.Router, *metrics.Metrics) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := handlers.NewHealthHandler(cfg, store, logger.New("error", "json", "discard"), m,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router, m
}

func healthyConfig() *config.Config {
	return &config.Config{
		Analytics: config.AnalyticsConfig{CacheControl: config.DefaultCacheControl},
		Security:  config.SecurityConfig{RateLimitRPS: 100},
	}
}

func TestHealthHandler_Health(t *testing.T) {
	t.Parallel()

	store := redis.NewMemoryStore(logger.New("error", "json", "discard"))
	t.Cleanup(func() { _ = store.Close() })

	tests := []struct {
		name           string
		store          redis.Store
		cfg            *config.Config
		expectedStatus handlers.HealthStatus
	}{
		{name: "healthy", store: store, cfg: healthyConfig(), expectedStatus: handlers.StatusHealthy},
		{name: "store_down_degrades", store: downStore{}, cfg: healthyConfig(), expectedStatus: handlers.StatusDegraded},
		{
			name:           "rate_limit_disabled_degrades",
			store:          store,
			cfg:            &config.Config{Analytics: config.AnalyticsConfig{CacheControl: "no-store"}},
			expectedStatus: handlers.StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, m := newHealthRouter(t, tt.store, tt.cfg)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			var resp handlers.HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedStatus, resp.Status)
			assert.Contains(t, resp.Components, "store")
			assert.Contains(t, resp.Components, "configuration")
			assert.Equal(t, float64(1), testutil.ToFloat64(
				m.HealthChecksTotal.WithLabelValues("health", string(tt.expectedStatus))))
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	t.Parallel()

	store := redis.NewMemoryStore(logger.New("error", "json", "discard"))
	t.Cleanup(func() { _ = store.Close() })

	tests := []struct {
		name         string
		store        redis.Store
		expectedCode int
		ready        bool
	}{
		{name: "memory_store_ready", store: store, expectedCode: http.StatusOK, ready: true},
		{name: "store_down_not_ready", store: downStore{}, expectedCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, _ := newHealthRouter(t, tt.store, healthyConfig())

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.expectedCode, rr.Code)
			var resp handlers.ReadinessResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.ready, resp.Ready)
		})
	}
}

func TestHealthHandler_LivenessAndMetrics(t *testing.T) {
	t.Parallel()

	router, _ := newHealthRouter(t, downStore{}, healthyConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"alive"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "analytics_health_checks_total")
}
