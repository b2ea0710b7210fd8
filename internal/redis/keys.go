package redis

import "strings"

// Key layout shared with the process that records OAuth activity.
const (
	// SessionKeyPrefix prefixes every active session key.
	SessionKeyPrefix = "session:"
	// SessionKeyPattern matches every active session key in a SCAN.
	SessionKeyPattern = SessionKeyPrefix + "*"
	// LoginEventsKey is the sorted set of login events scored by event time (ms).
	LoginEventsKey = "analytics:oauth:logins"
	// LogoutEventsKey is the sorted set of logout events scored by event time (ms).
	LogoutEventsKey = "analytics:oauth:logouts"
	// RateLimitKey is the sorted set of rate-limit snapshots scored by snapshot time (ms).
	RateLimitKey = "analytics:ratelimit"
)

// SessionKey returns the store key for a session ID.
func SessionKey(sessionID string) string {
	return SessionKeyPrefix + sessionID
}

// SessionIDFromKey extracts the session ID suffix from a session key.
func SessionIDFromKey(key string) string {
	return strings.TrimPrefix(key, SessionKeyPrefix)
}
