// Package redis provides storage implementations for OAuth usage analytics data.
// This file implements an in-memory store that satisfies the same Store interface
// as the Redis client, allowing for local development and tests without Redis.
package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// CleanupInterval is the interval between expired item cleanup runs.
	CleanupInterval = 5 * time.Minute
)

// MemoryStore is an in-memory implementation of the Store interface.
// String values support TTLs via lazy expiry plus a background cleanup goroutine;
// sorted sets keep members ordered by (score, member) like Redis.
type MemoryStore struct {
	values        map[string]*expiringItem[string]
	sortedSets    map[string][]zMember
	logger        *logrus.Logger
	mu            sync.RWMutex
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	closeOnce     sync.Once
}

// expiringItem wraps data with expiration time for TTL support.
// A zero ExpiresAt means the item never expires.
type expiringItem[T any] struct {
	Data      T
	ExpiresAt time.Time
}

// isExpired checks if the item has expired.
func (e *expiringItem[T]) isExpired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

type zMember struct {
	score  int64
	member string
}

// NewMemoryStore creates a new in-memory store with TTL cleanup.
func NewMemoryStore(logger *logrus.Logger) *MemoryStore {
	store := &MemoryStore{
		values:        make(map[string]*expiringItem[string]),
		sortedSets:    make(map[string][]zMember),
		logger:        logger,
		cleanupTicker: time.NewTicker(CleanupInterval),
		stopCleanup:   make(chan struct{}),
	}

	go store.cleanupExpiredItems()

	logger.Info("In-memory store initialized with TTL cleanup")
	return store
}

// cleanupExpiredItems runs periodically to remove expired items.
func (m *MemoryStore) cleanupExpiredItems() {
	defer m.cleanupTicker.Stop()

	for {
		select {
		case <-m.cleanupTicker.C:
			m.performCleanup()
		case <-m.stopCleanup:
			return
		}
	}
}

// performCleanup removes expired string values.
func (m *MemoryStore) performCleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	expired := 0
	for key, item := range m.values {
		if item.isExpired(now) {
			delete(m.values, key)
			expired++
		}
	}

	if expired > 0 {
		m.logger.WithField("expired_items", expired).Debug("Cleaned up expired items from memory store")
	}
}

// Close shuts down the memory store and cleanup goroutine. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopCleanup)
		m.logger.Info("Memory store closed")
	})
	return nil
}

// Ping always returns nil for memory store (always available).
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Set stores a string value. A ttl of zero keeps the value until deleted.
func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := &expiringItem[string]{Data: value}
	if ttl > 0 {
		item.ExpiresAt = time.Now().Add(ttl)
	}
	m.values[key] = item
	return nil
}

// Delete removes a string value or sorted set.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	delete(m.sortedSets, key)
	return nil
}

// ZAdd adds members to the sorted set at key. Re-adding a member updates its score.
func (m *MemoryStore) ZAdd(_ context.Context, key string, score int64, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.sortedSets[key]
	for _, member := range members {
		replaced := false
		for i := range set {
			if set[i].member == member {
				set[i].score = score
				replaced = true
				break
			}
		}
		if !replaced {
			set = append(set, zMember{score: score, member: member})
		}
	}

	sort.Slice(set, func(i, j int) bool {
		if set[i].score != set[j].score {
			return set[i].score < set[j].score
		}
		return set[i].member < set[j].member
	})
	m.sortedSets[key] = set
	return nil
}

// Scan walks the live string keys in lexical order, count keys per page, and returns
// those matching the glob pattern. The cursor is the offset of the next page.
func (m *MemoryStore) Scan(_ context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if count <= 0 {
		count = 10
	}

	now := time.Now()
	all := make([]string, 0, len(m.values))
	for key, item := range m.values {
		if !item.isExpired(now) {
			all = append(all, key)
		}
	}
	sort.Strings(all)

	start := cursor
	if start >= uint64(len(all)) {
		return []string{}, 0, nil
	}
	end := start + uint64(count)
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}

	keys := make([]string, 0, end-start)
	for _, key := range all[start:end] {
		if matchGlob(match, key) {
			keys = append(keys, key)
		}
	}

	next := end
	if end == uint64(len(all)) {
		next = 0
	}
	return keys, next, nil
}

// Get retrieves a string value, returning ErrCacheMiss if absent or expired.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.values[key]
	if !exists || item.isExpired(time.Now()) {
		return "", ErrCacheMiss
	}
	return item.Data, nil
}

// RangeByScore returns members with min <= score <= max in ascending score order.
func (m *MemoryStore) RangeByScore(_ context.Context, key string, min, max int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := []string{}
	for _, z := range m.sortedSets[key] {
		if z.score >= min && z.score <= max {
			members = append(members, z.member)
		}
	}
	return members, nil
}
