// Package analytics implements the OAuth usage aggregation engine. It turns the raw
// session, login/logout event and rate-limit snapshot records kept in the shared store
// into windowed usage metrics for the operations dashboard.
//
// Each collector contains its own store failures: it logs, counts the fallback and
// returns a documented default so that one unavailable data source never fails the
// whole response. Malformed persisted records are dropped from parsed-derived outputs
// but still counted wherever a raw count is reported.
package analytics
