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

var testWindow = models.TimeWindow{Start: 1000, End: 5000, WindowMs: 4000}

func TestEventReader_CountsIncludeUndecodableEntries(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	store := newFakeStore()
	store.sets[redis.LoginEventsKey] = []string{
		`{"timestamp":1500,"userId":"1","login":"octocat"}`,
		`invalid json {{{`,
		`{"timestamp":2500,"userId":"2","login":"hubot"}`,
	}

	summary := analytics.NewEventReader(store, testLogger(t), m).Read(context.Background(), testWindow)

	assert.Equal(t, 3, summary.LoginCount)
	assert.Equal(t, 0, summary.LogoutCount)
	require.Len(t, summary.Timeline, 2)
	for _, entry := range summary.Timeline {
		assert.Equal(t, models.EventLogin, entry.Event)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MalformedRecords.WithLabelValues("logins")))
}

func TestEventReader_AcceptsNonIntegralTimestamps(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.sets[redis.LoginEventsKey] = []string{
		`{"timestamp":1500.0,"userId":"1","login":"octocat"}`,
		`{"timestamp":2.5e3,"userId":"2","login":"hubot"}`,
	}

	summary := analytics.NewEventReader(store, testLogger(t), nil).Read(context.Background(), testWindow)

	assert.Equal(t, 2, summary.LoginCount)
	require.Len(t, summary.Timeline, 2)
	assert.Equal(t, int64(1500), summary.Timeline[0].Timestamp)
	assert.Equal(t, int64(2500), summary.Timeline[1].Timestamp)
}

func TestEventReader_TimelineSortedAcrossSets(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.sets[redis.LoginEventsKey] = []string{
		`{"timestamp":1000,"userId":"1","login":"a"}`,
		`{"timestamp":3000,"userId":"2","login":"b"}`,
	}
	store.sets[redis.LogoutEventsKey] = []string{
		`{"timestamp":2000,"userId":"1","login":"a"}`,
		`{"timestamp":3000,"userId":"3","login":"c"}`,
		`null`,
	}

	summary := analytics.NewEventReader(store, testLogger(t), nil).Read(context.Background(), testWindow)

	assert.Equal(t, 2, summary.LoginCount)
	assert.Equal(t, 3, summary.LogoutCount)
	require.Len(t, summary.Timeline, 4)

	expected := []struct {
		ts    int64
		event models.EventType
		user  string
	}{
		{1000, models.EventLogin, "1"},
		{2000, models.EventLogout, "1"},
		{3000, models.EventLogin, "2"},
		{3000, models.EventLogout, "3"},
	}
	for i, e := range expected {
		assert.Equal(t, e.ts, summary.Timeline[i].Timestamp, "entry %d", i)
		assert.Equal(t, e.event, summary.Timeline[i].Event, "entry %d", i)
		assert.Equal(t, e.user, summary.Timeline[i].UserID, "entry %d", i)
	}
}

func TestEventReader_QueriesWindowBounds(t *testing.T) {
	t.Parallel()

	store := newFakeStore()

	analytics.NewEventReader(store, testLogger(t), nil).Read(context.Background(), testWindow)

	require.Len(t, store.rangeCalls, 2)
	keys := []string{store.rangeCalls[0].key, store.rangeCalls[1].key}
	assert.ElementsMatch(t, []string{redis.LoginEventsKey, redis.LogoutEventsKey}, keys)
	for _, call := range store.rangeCalls {
		assert.Equal(t, testWindow.Start, call.min)
		assert.Equal(t, testWindow.End, call.max)
	}
}

func TestEventReader_StoreErrorFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		failOn string
	}{
		{name: "logins_fail", failOn: redis.LoginEventsKey},
		{name: "logouts_fail", failOn: redis.LogoutEventsKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := metrics.New(prometheus.NewRegistry())
			store := newFakeStore()
			store.sets[redis.LoginEventsKey] = []string{`{"timestamp":1500}`}
			store.sets[redis.LogoutEventsKey] = []string{`{"timestamp":1600}`}
			store.rangeErrs[tt.failOn] = errStoreDown

			summary := analytics.NewEventReader(store, testLogger(t), m).Read(context.Background(), testWindow)

			assert.Equal(t, 0, summary.LoginCount)
			assert.Equal(t, 0, summary.LogoutCount)
			assert.NotNil(t, summary.Timeline)
			assert.Empty(t, summary.Timeline)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.CollectorFallbacks.WithLabelValues(metrics.CollectorEvents)))
		})
	}
}
