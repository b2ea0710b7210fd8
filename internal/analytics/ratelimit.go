package analytics

import (
	"context"
	"encoding/json"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/metrics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
)

// RateLimitAggregator summarises GitHub API rate-limit snapshots for a window.
type RateLimitAggregator struct {
	store   redis.Store
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewRateLimitAggregator creates an aggregator over store.
func NewRateLimitAggregator(store redis.Store, logger *logrus.Logger, m *metrics.Metrics) *RateLimitAggregator {
	return &RateLimitAggregator{
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// Aggregate computes average and peak usage over the snapshots in window.
//
// Averages divide by the raw snapshot count, so undecodable snapshots pull the
// averages down without contributing to the sums. The peak only considers decoded
// snapshots and is 0 when none decode. No snapshots or a store error yield
// models.DefaultRateLimitMetrics.
func (a *RateLimitAggregator) Aggregate(ctx context.Context, window models.TimeWindow) models.RateLimitMetrics {
	raw, err := a.store.RangeByScore(ctx, redis.RateLimitKey, window.Start, window.End)
	if err != nil {
		a.logger.WithError(err).WithField("collector", metrics.CollectorRateLimit).
			Error("Failed to read rate limit snapshots, reporting defaults")
		a.metrics.CollectorFallback(metrics.CollectorRateLimit)
		return models.DefaultRateLimitMetrics()
	}

	if len(raw) == 0 {
		return models.DefaultRateLimitMetrics()
	}

	var sumUsed, sumRemaining, peak float64
	malformed := 0
	for _, member := range raw {
		var snap *models.RateLimitSnapshot
		if unmarshalErr := json.Unmarshal([]byte(member), &snap); unmarshalErr != nil || snap == nil {
			malformed++
			continue
		}
		used := snap.UsedOrDefault()
		sumUsed += used
		sumRemaining += snap.RemainingOrDefault()
		peak = math.Max(peak, used)
	}

	if malformed > 0 {
		a.metrics.MalformedRecord(metrics.CollectorRateLimit, malformed)
		a.logger.WithFields(logrus.Fields{
			"snapshots": len(raw),
			"malformed": malformed,
		}).Debug("Skipped undecodable rate limit snapshots")
	}

	count := float64(len(raw))
	return models.RateLimitMetrics{
		AvgUsage:     int64(math.Round(sumUsed / count)),
		PeakUsage:    int64(math.Round(peak)),
		AvgRemaining: int64(math.Round(sumRemaining / count)),
	}
}
