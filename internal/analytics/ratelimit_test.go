package analytics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/analytics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/metrics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
)

func TestRateLimitAggregator_Aggregate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		snapshots []string
		expected  models.RateLimitMetrics
	}{
		{
			name:      "no_snapshots_returns_default",
			snapshots: nil,
			expected:  models.RateLimitMetrics{AvgUsage: 0, PeakUsage: 0, AvgRemaining: 5000},
		},
		{
			name: "malformed_entry_counts_in_denominator",
			snapshots: []string{
				`{"timestamp":1,"used":100,"remaining":4900}`,
				`{{not json`,
				`{"timestamp":3,"used":200,"remaining":4800}`,
			},
			expected: models.RateLimitMetrics{AvgUsage: 100, PeakUsage: 200, AvgRemaining: 3233},
		},
		{
			name: "missing_fields_use_defaults",
			snapshots: []string{
				`{"timestamp":1}`,
				`{"timestamp":2,"used":50}`,
			},
			expected: models.RateLimitMetrics{AvgUsage: 25, PeakUsage: 50, AvgRemaining: 5000},
		},
		{
			name: "all_malformed_peak_zero",
			snapshots: []string{
				`oops`,
				`null`,
			},
			expected: models.RateLimitMetrics{AvgUsage: 0, PeakUsage: 0, AvgRemaining: 0},
		},
		{
			name: "rounds_half_up",
			snapshots: []string{
				`{"used":1,"remaining":1}`,
				`{"used":2,"remaining":2}`,
			},
			expected: models.RateLimitMetrics{AvgUsage: 2, PeakUsage: 2, AvgRemaining: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			store.sets[redis.RateLimitKey] = tt.snapshots

			got := analytics.NewRateLimitAggregator(store, testLogger(t), nil).Aggregate(context.Background(), testWindow)

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRateLimitAggregator_PeakIgnoresMalformed(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	store := newFakeStore()
	store.sets[redis.RateLimitKey] = []string{
		`{"used":10}`,
		`{"used":"9999"}`,
		`{"used":30}`,
	}

	got := analytics.NewRateLimitAggregator(store, testLogger(t), m).Aggregate(context.Background(), testWindow)

	assert.Equal(t, int64(30), got.PeakUsage)
	assert.Equal(t, int64(13), got.AvgUsage)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MalformedRecords.WithLabelValues(metrics.CollectorRateLimit)))
}

func TestRateLimitAggregator_StoreErrorReturnsDefault(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	store := newFakeStore()
	store.rangeErrs[redis.RateLimitKey] = errStoreDown

	got := analytics.NewRateLimitAggregator(store, testLogger(t), m).Aggregate(context.Background(), testWindow)

	assert.Equal(t, models.DefaultRateLimitMetrics(), got)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CollectorFallbacks.WithLabelValues(metrics.CollectorRateLimit)))
	require.Len(t, store.rangeCalls, 1)
	assert.Equal(t, testWindow.Start, store.rangeCalls[0].min)
	assert.Equal(t, testWindow.End, store.rangeCalls[0].max)
}
