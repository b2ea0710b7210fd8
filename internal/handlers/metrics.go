// Package handlers provides HTTP handlers for the analytics service endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/constants"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/pkg/logger"
)

// MetricsComposer computes OAuth usage metrics for a period.
type MetricsComposer interface {
	Compose(ctx context.Context, period models.Period, detailed bool) (*models.MetricsResult, error)
}

// MetricsHandler serves the OAuth usage metrics endpoint.
type MetricsHandler struct {
	composer MetricsComposer
	config   *config.Config
	logger   *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler instance with the provided dependencies.
func NewMetricsHandler(composer MetricsComposer, cfg *config.Config, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		composer: composer,
		config:   cfg,
		logger:   logger,
	}
}

// RegisterRoutes registers the metrics route on the provided router.
func (h *MetricsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/oauth/metrics", h.GetMetrics).Methods(http.MethodGet)
}

// GetMetrics handles GET /oauth/metrics.
//
// Query Parameters:
//   - period: hour, day, week or month (default: day)
//   - detailed: include redacted sessions and the event timeline (default: false)
//
// Responses:
//   - 200: Metrics computed, possibly with collector fallbacks applied
//   - 400: Unknown period or non-boolean detailed
//   - 500: The request was abandoned before metrics could be composed
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.WithCorrelationID(ctx, h.logger)

	period, apiErr := parsePeriodParam(r)
	if apiErr != nil {
		h.writeError(w, apiErr)
		return
	}

	detailed, apiErr := parseBoolParam(r, "detailed")
	if apiErr != nil {
		h.writeError(w, apiErr)
		return
	}

	result, err := h.composer.Compose(ctx, period, detailed)
	if err != nil {
		log.WithError(err).WithField("period", period).Error("Failed to compose OAuth metrics")
		h.writeError(w, models.NewServerError("Failed to compute OAuth metrics"))
		return
	}

	w.Header().Set(constants.HeaderCacheControl, h.cacheControl())
	h.writeJSON(w, result, http.StatusOK)

	log.WithFields(logrus.Fields{
		"period":          period,
		"detailed":        detailed,
		"active_sessions": result.Metrics.ActiveSessions,
	}).Info("OAuth metrics served")
}

func (h *MetricsHandler) cacheControl() string {
	if h.config == nil || h.config.Analytics.CacheControl == "" {
		return config.DefaultCacheControl
	}
	return h.config.Analytics.CacheControl
}

// parsePeriodParam reads the period query parameter, defaulting to day.
func parsePeriodParam(r *http.Request) (models.Period, *models.APIError) {
	value := r.URL.Query().Get("period")
	if value == "" {
		return models.DefaultPeriod, nil
	}
	period, ok := models.ParsePeriod(value)
	if !ok {
		return "", models.NewInvalidRequest("period must be one of hour, day, week, month")
	}
	return period, nil
}

// parseBoolParam parses a strict true/false query parameter with default false.
func parseBoolParam(r *http.Request, name string) (bool, *models.APIError) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return false, nil
	}
	switch value {
	case strconv.FormatBool(true):
		return true, nil
	case strconv.FormatBool(false):
		return false, nil
	default:
		return false, models.NewInvalidRequest(name + " must be true or false")
	}
}

func (h *MetricsHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

func (h *MetricsHandler) writeError(w http.ResponseWriter, apiErr *models.APIError) {
	writeAPIError(w, h.logger, apiErr)
}

// MethodNotAllowedHandler renders the JSON 405 body for routes matched on path only.
func MethodNotAllowedHandler(logger *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, logger, models.ErrMethodNotAllowed)
	})
}

func writeAPIError(w http.ResponseWriter, logger *logrus.Logger, apiErr *models.APIError) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(apiErr.StatusCode)

	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}
