package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/pkg/logger"
)

var errStoreDown = errors.New("connection refused")

type scanPage struct {
	keys []string
	next uint64
}

type rangeCall struct {
	key      string
	min, max int64
}

// fakeStore is a scripted Store. Scan replays pages in order, Get serves values
// (missing keys are cache misses) and RangeByScore returns sets regardless of bounds
// while recording them.
type fakeStore struct {
	mu sync.Mutex

	pages  []scanPage
	values map[string]string
	sets   map[string][]string

	scanErr   error
	getErrs   map[string]error
	rangeErrs map[string]error

	scanCalls  int
	getCalls   int
	rangeCalls []rangeCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:    map[string]string{},
		sets:      map[string][]string{},
		getErrs:   map[string]error{},
		rangeErrs: map[string]error{},
	}
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) Ping(_ context.Context) error { return nil }

func (f *fakeStore) Scan(_ context.Context, _ uint64, _ string, _ int64) ([]string, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.scanCalls
	f.scanCalls++
	if f.scanErr != nil {
		return nil, 0, f.scanErr
	}
	if idx >= len(f.pages) {
		return []string{}, 0, nil
	}
	return f.pages[idx].keys, f.pages[idx].next, nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	if err, ok := f.getErrs[key]; ok {
		return "", err
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeStore) RangeByScore(_ context.Context, key string, min, max int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rangeCalls = append(f.rangeCalls, rangeCall{key: key, min: min, max: max})
	if err, ok := f.rangeErrs[key]; ok {
		return nil, err
	}
	return append([]string(nil), f.sets[key]...), nil
}

// rendezvousStore blocks the session Scan and the rate-limit range until both
// have been entered, failing either one after a deadline.
type rendezvousStore struct {
	*fakeStore

	scanEntered, rangeEntered chan struct{}
	scanOnce, rangeOnce       sync.Once
	wait                      time.Duration
}

func newRendezvousStore(wait time.Duration) *rendezvousStore {
	return &rendezvousStore{
		fakeStore:    newFakeStore(),
		scanEntered:  make(chan struct{}),
		rangeEntered: make(chan struct{}),
		wait:         wait,
	}
}

func (r *rendezvousStore) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	r.scanOnce.Do(func() { close(r.scanEntered) })
	select {
	case <-r.rangeEntered:
	case <-time.After(r.wait):
		return nil, 0, errStoreDown
	}
	return r.fakeStore.Scan(ctx, cursor, match, count)
}

func (r *rendezvousStore) RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error) {
	if key == redis.RateLimitKey {
		r.rangeOnce.Do(func() { close(r.rangeEntered) })
		select {
		case <-r.scanEntered:
		case <-time.After(r.wait):
			return nil, errStoreDown
		}
	}
	return r.fakeStore.RangeByScore(ctx, key, min, max)
}

func testLogger(_ *testing.T) *logrus.Logger {
	return logger.New("error", "json", "discard")
}
