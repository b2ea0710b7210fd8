package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/metrics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
)

// DefaultScanPageSize is the SCAN COUNT hint used when none is configured.
const DefaultScanPageSize = 100

// SessionCollector enumerates the sessions currently present in the store.
type SessionCollector struct {
	store    redis.Store
	pageSize int64
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

// NewSessionCollector creates a collector scanning pageSize keys per SCAN page.
func NewSessionCollector(
	store redis.Store,
	pageSize int64,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *SessionCollector {
	if pageSize <= 0 {
		pageSize = DefaultScanPageSize
	}
	return &SessionCollector{
		store:    store,
		pageSize: pageSize,
		logger:   logger,
		metrics:  m,
	}
}

// Collect returns every readable active session. It never fails: any store error
// during the scan or the fetches aborts the whole collection and yields an empty list.
func (c *SessionCollector) Collect(ctx context.Context) []models.Session {
	sessions, err := c.collect(ctx)
	if err != nil {
		c.logger.WithError(err).WithField("collector", metrics.CollectorSessions).
			Error("Failed to collect active sessions, reporting none")
		c.metrics.CollectorFallback(metrics.CollectorSessions)
		return []models.Session{}
	}
	return sessions
}

func (c *SessionCollector) collect(ctx context.Context) ([]models.Session, error) {
	keys, err := c.scanSessionKeys(ctx)
	if err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(keys))
	malformed := 0
	for _, key := range keys {
		data, getErr := c.store.Get(ctx, key)
		if getErr != nil {
			// Expired between scan and fetch
			if errors.Is(getErr, redis.ErrCacheMiss) {
				continue
			}
			return nil, fmt.Errorf("failed to get session %s: %w", key, getErr)
		}

		var session *models.Session
		if unmarshalErr := json.Unmarshal([]byte(data), &session); unmarshalErr != nil || session == nil {
			c.logger.WithError(unmarshalErr).WithField("key", key).Debug("Failed to decode session, skipping")
			malformed++
			continue
		}
		session.ID = redis.SessionIDFromKey(key)
		sessions = append(sessions, *session)
	}

	c.metrics.MalformedRecord(metrics.CollectorSessions, malformed)
	c.logger.WithFields(logrus.Fields{
		"keys":     len(keys),
		"sessions": len(sessions),
	}).Debug("Active sessions collected")

	return sessions, nil
}

// scanSessionKeys pages through the session namespace until the cursor returns to 0.
func (c *SessionCollector) scanSessionKeys(ctx context.Context) ([]string, error) {
	var sessionKeys []string
	var cursor uint64

	for {
		keys, nextCursor, err := c.store.Scan(ctx, cursor, redis.SessionKeyPattern, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session keys: %w", err)
		}

		sessionKeys = append(sessionKeys, keys...)
		cursor = nextCursor

		if cursor == 0 {
			break
		}
	}

	return sessionKeys, nil
}
