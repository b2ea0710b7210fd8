package analytics

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/metrics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
)

// Composer produces a MetricsResult by running the collectors against one window.
// It holds no per-request state and is safe for concurrent use.
type Composer struct {
	sessions   *SessionCollector
	events     *EventReader
	rateLimits *RateLimitAggregator
	now        func() time.Time
	logger     *logrus.Logger
	metrics    *metrics.Metrics
}

// Options tunes a Composer.
type Options struct {
	// ScanPageSize is the SCAN COUNT hint for session enumeration.
	ScanPageSize int64
	// Now returns the evaluation time. Defaults to time.Now.
	Now func() time.Time
}

// NewComposer wires the three collectors over the same store.
func NewComposer(store redis.Store, opts Options, logger *logrus.Logger, m *metrics.Metrics) *Composer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Composer{
		sessions:   NewSessionCollector(store, opts.ScanPageSize, logger, m),
		events:     NewEventReader(store, logger, m),
		rateLimits: NewRateLimitAggregator(store, logger, m),
		now:        now,
		logger:     logger,
		metrics:    m,
	}
}

// Compose computes the usage metrics for period. When detailed is true the result
// carries the redacted sessions and the event timeline.
//
// Store failures never surface here; each collector substitutes its fallback. The
// only error is a cancelled or expired ctx, in which case the collected data is
// not trustworthy and the caller should fail the request.
func (c *Composer) Compose(ctx context.Context, period models.Period, detailed bool) (*models.MetricsResult, error) {
	started := time.Now()
	now := c.now()
	window := ResolveWindow(period, now)

	var (
		sessions  []models.Session
		events    EventSummary
		rateLimit models.RateLimitMetrics
	)

	// Collectors substitute their own fallbacks and never fail.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		sessions = c.sessions.Collect(ctx)
	}()
	go func() {
		defer wg.Done()
		events = c.events.Read(ctx, window)
	}()
	go func() {
		defer wg.Done()
		rateLimit = c.rateLimits.Aggregate(ctx, window)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("metrics request abandoned: %w", err)
	}

	result := &models.MetricsResult{
		Period:    period,
		Timestamp: window.End,
		Metrics: models.UsageMetrics{
			ActiveSessions:     len(sessions),
			TotalLogins:        events.LoginCount,
			TotalLogouts:       events.LogoutCount,
			UniqueUsers:        uniqueUsers(sessions),
			AvgSessionDuration: avgSessionDuration(sessions, window.End),
			RateLimit:          rateLimit,
		},
	}

	if detailed {
		redacted := make([]models.RedactedSession, 0, len(sessions))
		for _, s := range sessions {
			redacted = append(redacted, s.Redact())
		}
		timeline := events.Timeline
		if timeline == nil {
			timeline = []models.TimelineEntry{}
		}
		result.Detailed = &models.DetailedView{
			Sessions: redacted,
			Timeline: timeline,
		}
	}

	c.metrics.ObserveCompose(string(period), time.Since(started))
	c.logger.WithFields(logrus.Fields{
		"period":          period,
		"detailed":        detailed,
		"active_sessions": result.Metrics.ActiveSessions,
		"total_logins":    result.Metrics.TotalLogins,
		"total_logouts":   result.Metrics.TotalLogouts,
		"duration":        time.Since(started).String(),
	}).Debug("OAuth metrics composed")

	return result, nil
}

// uniqueUsers counts the distinct user IDs across sessions.
func uniqueUsers(sessions []models.Session) int {
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		seen[s.UserID] = struct{}{}
	}
	return len(seen)
}

// avgSessionDuration is the rounded mean of (lastActivity or nowMs) - createdAt in ms.
func avgSessionDuration(sessions []models.Session, nowMs int64) int64 {
	if len(sessions) == 0 {
		return 0
	}
	var total int64
	for _, s := range sessions {
		last := nowMs
		if s.LastActivity != nil {
			last = *s.LastActivity
		}
		total += last - s.CreatedAt
	}
	avg := int64(math.Round(float64(total) / float64(len(sessions))))
	if avg < 0 {
		// createdAt ahead of lastActivity on skewed writers
		return 0
	}
	return avg
}
