// Package integration contains integration tests for the OAuth usage analytics service.
//
// These tests use testcontainers to run a real Redis and exercise the store,
// the aggregation engine, and the Redis-backed rate limiter against it.
package integration
