// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/poigraph/internal/api"
	"github.com/onnwee/poigraph/internal/archive"
	"github.com/onnwee/poigraph/internal/auth"
	"github.com/onnwee/poigraph/internal/cache"
	"github.com/onnwee/poigraph/internal/config"
	"github.com/onnwee/poigraph/internal/db"
	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/health"
	"github.com/onnwee/poigraph/internal/ingest"
	"github.com/onnwee/poigraph/internal/jobs"
	"github.com/onnwee/poigraph/internal/middleware"
	"github.com/onnwee/poigraph/internal/overpass"
	"github.com/onnwee/poigraph/internal/ranking"
	"github.com/onnwee/poigraph/internal/stream"
	"github.com/onnwee/poigraph/internal/tracing"
)

const serviceName = "poigraph-api"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file (env overrides it)")
	flag.Parse()

	if *help {
		fmt.Println("POI Graph API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			slog.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "settings", cfg.LogSummary())

	tp, err := tracing.NewProvider(cfg.TracingConfig(serviceName, version))
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize server", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	if a.job != nil {
		if err := a.job.Start(ctx); err != nil {
			logger.Error("failed to start ingest job", "error", err)
			os.Exit(1)
		}
	}

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Websocket connections are hijacked and not tracked by Shutdown.
	a.broadcaster.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	a.close()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to flush traces", "error", err)
	}

	logger.Info("server stopped")
}

// app holds the wired server and the resources it owns.
type app struct {
	handler     http.Handler
	job         *ingest.Job // nil unless periodic ingestion is enabled
	broadcaster *stream.Broadcaster
	closers     []func() error
	logger      *slog.Logger
}

// close stops the ingest job and releases connections in reverse order.
func (a *app) close() {
	if a.job != nil {
		a.job.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", "error", err)
		}
	}
}

// newApp connects the configured backends and builds the HTTP handler.
// Optional backends (Postgres, Redis, S3, Overpass) are skipped when not
// configured.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}
	checkers := make(map[string]health.Checker)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	httpMetrics := middleware.NewMetrics()
	ingestMetrics := ingest.NewMetrics()
	jobMetrics := jobs.NewMetrics()
	streamMetrics := stream.NewMetrics()
	for _, m := range []interface{ Register(prometheus.Registerer) error }{httpMetrics, ingestMetrics, jobMetrics, streamMetrics} {
		if err := m.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	// Snapshot repository
	var repo graph.Repository = graph.NewInMemoryRepository()
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		if err := db.CheckSchema(ctx, conn); err != nil {
			a.close()
			return nil, err
		}
		repo = graph.NewPostgresRepository(conn, cfg.SnapshotRetention, logger)
		checkers["database"] = health.NewDBChecker(conn)
		logger.Info("using postgres snapshot repository")
	} else {
		logger.Warn("DATABASE_URL not set, snapshots are kept in memory only")
	}

	// Ranking cache: process-local LRU, optionally backed by Redis
	lru, err := cache.NewLRU(cfg.CacheSize)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create ranking cache: %w", err)
	}
	var rankingCache cache.RankingCache = lru
	var rateStore middleware.RateLimitStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)
		rankingCache = cache.NewTiered(lru, cache.NewRedis(client, "poigraph:rank:", cfg.CacheTTL), logger)
		rateStore = middleware.NewRedisRateLimitStore(client, "poigraph:ratelimit:")
		checkers["redis"] = health.NewRedisChecker(client)
		logger.Info("using redis for ranking cache and rate limits")
	} else {
		mem := middleware.NewInMemoryRateLimitStore()
		go cleanupRateLimits(ctx, mem)
		rateStore = mem
	}

	// Falls back to the default weights and logs when the file is unusable.
	weights, _ := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	rankings := api.NewRankingService(repo, weights, rankingCache, logger)

	a.broadcaster = stream.NewBroadcaster(cfg.CORSAllowedOrigins, streamMetrics, logger)

	jobConfig := ingest.JobConfig{
		Interval:   cfg.IngestInterval,
		Graph:      cfg.Graph,
		Logger:     logger,
		Metrics:    ingestMetrics,
		JobMetrics: jobMetrics,
		Publisher:  a.broadcaster,
		Warmer:     rankings,
	}
	if cfg.ArchiveEnabled() {
		archiver, err := archive.NewS3Archiver(cfg.ArchiveConfig(), logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create snapshot archiver: %w", err)
		}
		jobConfig.Archiver = archiver
	}

	var source ingest.Source
	if cfg.IngestEnabled {
		client := overpass.NewClient(cfg.OverpassConfig(), logger)
		source = client
		if status := client.StatusURL(); status != "" {
			checkers["overpass"] = health.NewHTTPChecker("overpass", status)
		}
	}
	job := ingest.NewJob(jobConfig, source, repo)
	if source != nil {
		a.job = job
	}

	routes := api.Routes{
		Health:   api.NewHealthHandlers(repo, checkers, logger),
		Graph:    api.NewGraphHandlers(repo, cfg.Palette, logger),
		Rankings: api.NewRankingHandlers(rankings, logger),
		Stream:   a.broadcaster,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Version:  version,
	}
	if cfg.JWTSecret != "" {
		validator := auth.NewJWTService(cfg.JWTSecret, cfg.JWTPreviousSecret)
		adminLimit := middleware.RateLimiter(rateStore, middleware.DefaultAdminLimit(), middleware.SubjectKeyFunc(), httpMetrics, logger)
		requireAdmin := middleware.RequireAdmin(validator, logger)
		routes.Admin = api.NewAdminHandlers(job, source != nil, logger)
		routes.AdminAuth = func(next http.Handler) http.Handler {
			return requireAdmin(adminLimit(next))
		}
	} else {
		logger.Warn("JWT_SECRET not set, admin endpoints are disabled")
	}

	publicLimit := middleware.DefaultPublicLimit()
	publicLimit.RequestsPerWindow = cfg.RateLimitPerMinute

	// Middleware, outermost first:
	// Tracing -> RequestID -> Logging -> CORS -> HTTPMetrics -> RateLimiter -> mux
	var handler http.Handler = routes.Mux()
	handler = middleware.RateLimiter(rateStore, publicLimit, middleware.IPKeyFunc(), httpMetrics, logger)(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins})(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Tracing(serviceName)(handler)
	a.handler = handler

	return a, nil
}

// cleanupRateLimits evicts expired in-memory buckets until ctx is done.
func cleanupRateLimits(ctx context.Context, store *middleware.InMemoryRateLimitStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Cleanup()
		}
	}
}
