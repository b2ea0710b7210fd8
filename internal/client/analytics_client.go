package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
)

// MetricsPath is the metrics endpoint relative to the service root.
const MetricsPath = "/api/v1/analytics/oauth/metrics"

// AnalyticsClient reads OAuth usage metrics from a running service.
type AnalyticsClient struct {
	*BaseClient
}

// NewAnalyticsClient creates a client for the service at baseURL.
func NewAnalyticsClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *AnalyticsClient {
	return &AnalyticsClient{BaseClient: NewBaseClient(baseURL, timeout, logger)}
}

// GetMetrics fetches the metrics for period. Non-200 responses are returned as
// *models.APIError when the body carries one.
func (c *AnalyticsClient) GetMetrics(ctx context.Context, period models.Period, detailed bool) (*models.MetricsResult, error) {
	query := url.Values{}
	query.Set("period", string(period))
	query.Set("detailed", strconv.FormatBool(detailed))

	resp, err := c.Get(ctx, MetricsPath, query)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.ParseErrorResponse(resp)
	}
	defer resp.Body.Close()

	var result models.MetricsResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode metrics response: %w", err)
	}

	return &result, nil
}
