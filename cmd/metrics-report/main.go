// Package main provides a CLI that prints an OAuth usage report, either from a
// running analytics service or computed directly against Redis.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/analytics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/client"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/pkg/logger"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Analytics service base URL")
		period   = flag.String("period", string(models.DefaultPeriod), "Window: hour, day, week, month")
		detailed = flag.Bool("detailed", false, "Include redacted sessions and the event timeline")
		direct   = flag.Bool("direct", false, "Compute against Redis using REDIS_* settings instead of calling the service")
		asJSON   = flag.Bool("json", false, "Print the raw JSON result")
		timeout  = flag.Duration("timeout", 30*time.Second, "Request timeout")
	)
	flag.Parse()

	p, ok := models.ParsePeriod(*period)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown period: %s\n", *period)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		result *models.MetricsResult
		err    error
	)
	if *direct {
		result, err = composeDirect(ctx, p, *detailed)
	} else {
		c := client.NewAnalyticsClient(*baseURL, *timeout, logger.New("error", "text", "stderr"))
		result, err = c.GetMetrics(ctx, p, *detailed)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printReport(result)
}

func composeDirect(ctx context.Context, period models.Period, detailed bool) (*models.MetricsResult, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New("error", "text", "stderr")
	store, err := redis.NewClient(&cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	composer := analytics.NewComposer(store, analytics.Options{
		ScanPageSize: int64(cfg.Analytics.ScanPageSize),
	}, log, nil)
	return composer.Compose(ctx, period, detailed)
}

func printReport(r *models.MetricsResult) {
	m := r.Metrics
	fmt.Printf("OAuth usage (%s) as of %s\n", r.Period, time.UnixMilli(r.Timestamp).Format(time.RFC3339))
	fmt.Printf("Active sessions:      %d\n", m.ActiveSessions)
	fmt.Printf("Unique users:         %d\n", m.UniqueUsers)
	fmt.Printf("Logins / logouts:     %d / %d\n", m.TotalLogins, m.TotalLogouts)
	fmt.Printf("Avg session duration: %s\n", (time.Duration(m.AvgSessionDuration) * time.Millisecond).String())
	fmt.Printf("Rate limit avg/peak:  %d / %d (avg remaining %d)\n",
		m.RateLimit.AvgUsage, m.RateLimit.PeakUsage, m.RateLimit.AvgRemaining)

	if r.Detailed == nil {
		return
	}
	fmt.Println()
	fmt.Printf("Sessions (%d):\n", len(r.Detailed.Sessions))
	for _, s := range r.Detailed.Sessions {
		fmt.Printf("  %-12s %-20s since %s\n", s.ID, s.Login, time.UnixMilli(s.CreatedAt).Format(time.RFC3339))
	}
	fmt.Printf("Timeline (%d):\n", len(r.Detailed.Timeline))
	for _, e := range r.Detailed.Timeline {
		fmt.Printf("  %s  %-6s %s\n", time.UnixMilli(e.Timestamp).Format(time.RFC3339), e.Event, e.Login)
	}
}
