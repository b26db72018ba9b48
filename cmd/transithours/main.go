package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"transithours/internal/cache"
	"transithours/internal/config"
	"transithours/internal/handler"
	"transithours/internal/hub"
	"transithours/internal/ingestor"
	"transithours/internal/jobs"
	"transithours/internal/metrics"
	"transithours/internal/middleware"
	"transithours/internal/store"
	"transithours/pkg/intake"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting transithours server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"feed_base_url", cfg.FeedBaseURL,
		"unblocked_trip_policy", cfg.UnblockedTripPolicy,
	)

	collector := metrics.NewCollector()

	var redisCache *cache.RedisCache
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedStore := store.NewFeedStore()
	intakeClient := intake.New(cfg.FeedBaseURL, cfg.FeedFetchTimeout, logger)
	feedIngestor := ingestor.New(intakeClient, feedStore, cfg.FeedTTL, collector, logger)

	progressHub := hub.NewHub(logger)
	jobManager := jobs.NewManager(ctx, feedIngestor, progressHub, collector, cfg.JobConcurrency, logger)

	hoursHandler := handler.NewHoursHandler(feedIngestor, feedStore, redisCache, cfg.CacheTTL, collector, cfg.UnblockedTripPolicy, logger)
	jobsHandler := handler.NewJobsHandler(jobManager, cfg.UnblockedTripPolicy, logger)
	wsHandler := handler.NewWSHandler(progressHub, jobManager, collector, logger)
	healthHandler := handler.NewHealthHandler(feedStore, jobManager)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/service-hours", hoursHandler.ComputeHours)
	mux.HandleFunc("GET /v1/feeds", hoursHandler.ListFeeds)

	mux.HandleFunc("POST /v1/jobs", jobsHandler.SubmitJob)
	mux.HandleFunc("GET /v1/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /v1/jobs/{id}", jobsHandler.GetJob)
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", collector.Handler())
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, collector, logger)

	var root http.Handler = mux
	root = rateLimiter.Middleware(root)
	root = handler.GzipMiddleware(root)
	root = handler.CORSMiddleware(root)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      root,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go progressHub.Run(ctx)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
