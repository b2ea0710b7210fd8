// Package client provides an HTTP client for the analytics service API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/constants"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
)

// BaseClient provides core HTTP client functionality for calling the service.
// It handles request construction, error parsing, and logging.
type BaseClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *logrus.Logger
}

// NewBaseClient creates a new BaseClient for HTTP operations.
func NewBaseClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *BaseClient {
	return &BaseClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Get issues a GET to path with query. Caller is responsible for closing the response body.
func (c *BaseClient) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", constants.ContentTypeJSON)

	c.logger.WithField("url", target).Debug("Sending HTTP request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", target).Error("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"url":    target,
		"status": resp.StatusCode,
	}).Debug("Received HTTP response")

	return resp, nil
}

// BaseURL returns the configured base URL for this client.
func (c *BaseClient) BaseURL() string {
	return c.baseURL
}

// ParseErrorResponse decodes an error body into *models.APIError, falling back
// to a generic error when the body is not in that shape. It closes the body.
func (c *BaseClient) ParseErrorResponse(resp *http.Response) error {
	defer resp.Body.Close()

	var apiErr models.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
		return fmt.Errorf("HTTP %d: failed to parse error response", resp.StatusCode)
	}
	apiErr.StatusCode = resp.StatusCode
	return &apiErr
}
