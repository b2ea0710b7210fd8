// Package startup provides utilities for service initialization including
// seeding the in-memory store with fixture data for local development.
package startup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
)

// SeedableStore is a store that accepts fixture writes.
type SeedableStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	ZAdd(ctx context.Context, key string, score int64, members ...string) error
}

// Fixture describes seed data. All times are offsets in milliseconds before
// the seeding instant so the data always falls inside recent windows.
type Fixture struct {
	Sessions []struct {
		ID                string `json:"id"`
		UserID            string `json:"userId"`
		Login             string `json:"login"`
		CreatedAgoMs      int64  `json:"createdAgoMs"`
		LastActivityAgoMs *int64 `json:"lastActivityAgoMs,omitempty"`
	} `json:"sessions"`
	Events []struct {
		Event  models.EventType `json:"event"`
		AgoMs  int64            `json:"agoMs"`
		UserID string           `json:"userId"`
		Login  string           `json:"login"`
	} `json:"events"`
	RateLimits []struct {
		AgoMs     int64   `json:"agoMs"`
		Used      float64 `json:"used"`
		Remaining float64 `json:"remaining"`
	} `json:"rateLimits"`
}

// SeedService writes fixture data into a SeedableStore during startup.
type SeedService struct {
	config *config.Config
	store  SeedableStore
	now    func() time.Time
	logger *logrus.Logger
}

// NewSeedService creates a new seed service.
func NewSeedService(cfg *config.Config, store SeedableStore, logger *logrus.Logger) *SeedService {
	return &SeedService{
		config: cfg,
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// Seed loads the configured fixture file into the store when seeding is enabled.
func (s *SeedService) Seed(ctx context.Context) error {
	if !s.config.Analytics.SeedEnabled {
		return nil
	}

	path := s.config.Analytics.SeedPath
	if err := validateFixturePath(path); err != nil {
		return fmt.Errorf("invalid seed path: %w", err)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	return s.Apply(ctx, &fixture)
}

// Apply writes fixture into the store relative to the current time.
func (s *SeedService) Apply(ctx context.Context, fixture *Fixture) error {
	nowMs := s.now().UnixMilli()

	for _, fs := range fixture.Sessions {
		session := models.Session{
			UserID:    fs.UserID,
			Login:     fs.Login,
			CreatedAt: nowMs - fs.CreatedAgoMs,
		}
		if fs.LastActivityAgoMs != nil {
			last := nowMs - *fs.LastActivityAgoMs
			session.LastActivity = &last
		}
		if err := s.setJSON(ctx, redis.SessionKey(fs.ID), session); err != nil {
			return err
		}
	}

	for _, fe := range fixture.Events {
		key, err := eventKey(fe.Event)
		if err != nil {
			return err
		}
		ts := nowMs - fe.AgoMs
		if err := s.zaddJSON(ctx, key, ts, models.OAuthEvent{Timestamp: ts, UserID: fe.UserID, Login: fe.Login}); err != nil {
			return err
		}
	}

	for _, fr := range fixture.RateLimits {
		ts := nowMs - fr.AgoMs
		used, remaining := fr.Used, fr.Remaining
		snap := models.RateLimitSnapshot{Timestamp: ts, Used: &used, Remaining: &remaining}
		if err := s.zaddJSON(ctx, redis.RateLimitKey, ts, snap); err != nil {
			return err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"sessions":    len(fixture.Sessions),
		"events":      len(fixture.Events),
		"rate_limits": len(fixture.RateLimits),
	}).Info("Seeded in-memory store")

	return nil
}

func (s *SeedService) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, string(data), 0); err != nil {
		return fmt.Errorf("failed to seed %s: %w", key, err)
	}
	return nil
}

func (s *SeedService) zaddJSON(ctx context.Context, key string, score int64, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s member: %w", key, err)
	}
	if err := s.store.ZAdd(ctx, key, score, string(data)); err != nil {
		return fmt.Errorf("failed to seed %s: %w", key, err)
	}
	return nil
}

func eventKey(event models.EventType) (string, error) {
	switch event {
	case models.EventLogin:
		return redis.LoginEventsKey, nil
	case models.EventLogout:
		return redis.LogoutEventsKey, nil
	default:
		return "", fmt.Errorf("unknown event type %q", event)
	}
}

// validateFixturePath rejects traversal, non-JSON files, and absolute paths
// outside the configs directories.
func validateFixturePath(fixturePath string) error {
	cleanPath := filepath.Clean(fixturePath)

	if strings.Contains(cleanPath, "..") {
		return errors.New("directory traversal not allowed in seed path")
	}

	if filepath.IsAbs(cleanPath) {
		if err := validateAbsolutePath(cleanPath); err != nil {
			return err
		}
	}

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("seed file must be a JSON file")
	}

	return nil
}

func validateAbsolutePath(cleanPath string) error {
	allowedPrefixes := []string{
		"/app/configs/",
		"/opt/app/configs/",
	}

	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(cleanPath, prefix) {
			return nil
		}
	}

	cwd, err := os.Getwd()
	if err == nil {
		configsDir := filepath.Join(cwd, "configs") + string(filepath.Separator)
		if strings.HasPrefix(cleanPath, configsDir) {
			return nil
		}
	}

	return errors.New("absolute paths not allowed outside of permitted directories")
}
