// Package main provides the entry point for the OAuth usage analytics service.
// It initializes the store, the aggregation engine, HTTP routes with middleware,
// and starts the server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/analytics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/handlers"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/metrics"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/middleware"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/redis"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/startup"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/pkg/logger"
)

// APIPrefix is the base path of every route the service exposes.
const APIPrefix = "/api/v1/analytics"

func main() {
	// .env.local only in development
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env.local file: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithConfig(&cfg.Logging)
	log.WithFields(logrus.Fields{
		"environment": cfg.Environment.Environment,
		"port":        cfg.Server.Port,
		"host":        cfg.Server.Host,
		"tls":         cfg.IsTLSEnabled(),
	}).Info("Starting OAuth usage analytics service")

	m := metrics.New(prometheus.DefaultRegisterer)

	store, rdb := initializeStore(cfg, log)
	defer closeStore(store, log)

	server := setupServer(cfg, store, rdb, m, log)
	runServer(server, cfg, log)
}

// initializeStore connects to Redis, falling back to an optionally seeded
// in-memory store. The raw go-redis client is nil on fallback.
func initializeStore(cfg *config.Config, log *logrus.Logger) (redis.Store, *goredis.Client) {
	client, err := redis.NewClient(&cfg.Redis, log)
	if err == nil {
		return client, client.GetRedisClient()
	}

	log.WithError(err).Warn("Failed to connect to Redis, falling back to in-memory store")
	log.Warn("Note: In-memory store is empty unless seeded and does not see production records")

	memoryStore := redis.NewMemoryStore(log)
	if seedErr := startup.NewSeedService(cfg, memoryStore, log).Seed(context.Background()); seedErr != nil {
		log.WithError(seedErr).Error("Failed to seed in-memory store")
	}
	return memoryStore, nil
}

func closeStore(store redis.Store, log *logrus.Logger) {
	if err := store.Close(); err != nil {
		log.WithError(err).Error("Failed to close store connection")
	}
}

func setupServer(
	cfg *config.Config,
	store redis.Store,
	rdb *goredis.Client,
	m *metrics.Metrics,
	log *logrus.Logger,
) *http.Server {
	composer := analytics.NewComposer(store, analytics.Options{
		ScanPageSize: int64(cfg.Analytics.ScanPageSize),
	}, log, m)

	metricsHandler := handlers.NewMetricsHandler(composer, cfg, log)
	healthHandler := handlers.NewHealthHandler(cfg, store, log, m, nil)

	stack := middleware.NewStack(cfg, rdb, log, m)

	router := mux.NewRouter()
	router.MethodNotAllowedHandler = handlers.MethodNotAllowedHandler(log)

	apiV1Router := router.PathPrefix(APIPrefix).Subrouter()
	apiV1Router.Use(stack.Instrument)
	healthHandler.RegisterRoutes(apiV1Router)
	metricsHandler.RegisterRoutes(apiV1Router)

	finalHandler := stack.Chain(
		router,
		stack.Recovery,
		stack.RequestLogger,
		stack.SecurityHeaders,
		stack.CORS,
		stack.RateLimit,
	)

	return &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func runServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	go startServer(server, cfg, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	} else {
		log.Info("Server exited gracefully")
	}
}

func startServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"addr": server.Addr,
		"tls":  cfg.IsTLSEnabled(),
	}).Info("Starting HTTP server")

	var err error
	if cfg.IsTLSEnabled() {
		err = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
	} else {
		err = server.ListenAndServe()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Failed to start server")
	}
}
