// Package models defines the data structures consumed and produced by the OAuth usage
// analytics engine: persisted session, event and rate-limit records, and the windowed
// metrics result served to the operations dashboard.
package models

import (
	"encoding/json"
	"math"
	"strings"
)

// Period selects the length of the metrics window.
type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// DefaultPeriod is used when no period is requested or the token is not recognized.
const DefaultPeriod = PeriodDay

// ParsePeriod maps a query token to a Period. It reports false for unknown tokens.
func ParsePeriod(token string) (Period, bool) {
	switch p := Period(strings.TrimSpace(token)); p {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth:
		return p, true
	default:
		return "", false
	}
}

// TimeWindow is the [Start, End] millisecond range metrics are computed over.
// End is "now" at evaluation time. It is never persisted.
type TimeWindow struct {
	Start    int64
	End      int64
	WindowMs int64
}

// Session is an active OAuth session record stored under session:{id}.
// ID is not part of the stored JSON; it is taken from the key suffix.
type Session struct {
	ID           string `json:"sessionId"`
	UserID       string `json:"userId"`
	Login        string `json:"login"`
	CreatedAt    int64  `json:"createdAt"`
	LastActivity *int64 `json:"lastActivity,omitempty"`
}

// RedactedSession is a Session whose ID has been truncated for the detailed view.
type RedactedSession Session

// SessionIDRedactLength is the number of session ID characters kept when redacting.
const SessionIDRedactLength = 8

// Redact returns a copy of the session with its ID truncated to the first eight
// characters (runes, not bytes) followed by "...".
func (s Session) Redact() RedactedSession {
	r := RedactedSession(s)
	id := s.ID
	if runes := []rune(id); len(runes) > SessionIDRedactLength {
		id = string(runes[:SessionIDRedactLength])
	}
	r.ID = id + "..."
	return r
}

// UnmarshalJSON accepts any JSON number for the timestamps, e.g. 1500.0 or 1.7e12.
func (s *Session) UnmarshalJSON(data []byte) error {
	type plain Session
	aux := struct {
		*plain
		CreatedAt    epochMillis  `json:"createdAt"`
		LastActivity *epochMillis `json:"lastActivity"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.CreatedAt = int64(aux.CreatedAt)
	s.LastActivity = nil
	if aux.LastActivity != nil {
		last := int64(*aux.LastActivity)
		s.LastActivity = &last
	}
	return nil
}

// epochMillis is a millisecond timestamp decoded from any JSON number and
// rounded to the nearest millisecond.
type epochMillis int64

func (m *epochMillis) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = epochMillis(math.Round(f))
	return nil
}

// EventType tags a timeline entry as a login or a logout.
type EventType string

const (
	EventLogin  EventType = "login"
	EventLogout EventType = "logout"
)

// OAuthEvent is a raw login/logout record scored by timestamp in an event set.
type OAuthEvent struct {
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"userId"`
	Login     string `json:"login"`
}

// UnmarshalJSON accepts any JSON number for the timestamp.
func (e *OAuthEvent) UnmarshalJSON(data []byte) error {
	type plain OAuthEvent
	aux := struct {
		*plain
		Timestamp epochMillis `json:"timestamp"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Timestamp = int64(aux.Timestamp)
	return nil
}

// TimelineEntry is a successfully decoded event tagged with its type.
type TimelineEntry struct {
	Timestamp int64     `json:"timestamp"`
	Event     EventType `json:"event"`
	UserID    string    `json:"userId"`
	Login     string    `json:"login"`
}

// Snapshot field defaults applied when a rate-limit record omits them.
const (
	DefaultRateLimitUsed      = 0
	DefaultRateLimitRemaining = 5000
)

// RateLimitSnapshot is a raw GitHub API rate-limit sample scored by timestamp.
// Pointer fields distinguish an absent value from an explicit zero.
type RateLimitSnapshot struct {
	Timestamp int64    `json:"timestamp"`
	Used      *float64 `json:"used"`
	Remaining *float64 `json:"remaining"`
}

// UnmarshalJSON accepts any JSON number for the timestamp.
func (s *RateLimitSnapshot) UnmarshalJSON(data []byte) error {
	type plain RateLimitSnapshot
	aux := struct {
		*plain
		Timestamp epochMillis `json:"timestamp"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Timestamp = int64(aux.Timestamp)
	return nil
}

// UsedOrDefault returns Used, or DefaultRateLimitUsed if it was absent.
func (s RateLimitSnapshot) UsedOrDefault() float64 {
	if s.Used == nil {
		return DefaultRateLimitUsed
	}
	return *s.Used
}

// RemainingOrDefault returns Remaining, or DefaultRateLimitRemaining if it was absent.
func (s RateLimitSnapshot) RemainingOrDefault() float64 {
	if s.Remaining == nil {
		return DefaultRateLimitRemaining
	}
	return *s.Remaining
}

// RateLimitMetrics summarises rate-limit usage over a window.
type RateLimitMetrics struct {
	AvgUsage     int64 `json:"avgUsage"`
	PeakUsage    int64 `json:"peakUsage"`
	AvgRemaining int64 `json:"avgRemaining"`
}

// DefaultRateLimitMetrics is returned when no snapshots exist or the store fails.
func DefaultRateLimitMetrics() RateLimitMetrics {
	return RateLimitMetrics{AvgUsage: 0, PeakUsage: 0, AvgRemaining: DefaultRateLimitRemaining}
}

// UsageMetrics holds the aggregate counters for one window.
type UsageMetrics struct {
	ActiveSessions     int              `json:"activeSessions"`
	TotalLogins        int              `json:"totalLogins"`
	TotalLogouts       int              `json:"totalLogouts"`
	UniqueUsers        int              `json:"uniqueUsers"`
	AvgSessionDuration int64            `json:"avgSessionDuration"`
	RateLimit          RateLimitMetrics `json:"rateLimit"`
}

// DetailedView is the privacy-redacted expansion attached on request.
type DetailedView struct {
	Sessions []RedactedSession `json:"sessions"`
	Timeline []TimelineEntry   `json:"timeline"`
}

// MetricsResult is the response payload of the metrics endpoint.
type MetricsResult struct {
	Period    Period        `json:"period"`
	Timestamp int64         `json:"timestamp"`
	Metrics   UsageMetrics  `json:"metrics"`
	Detailed  *DetailedView `json:"detailed,omitempty"`
}
