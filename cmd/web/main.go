package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"xerpihan-dashboard/internal/charts"
	"xerpihan-dashboard/internal/config"
	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/exporter"
	"xerpihan-dashboard/internal/handlers"
	"xerpihan-dashboard/internal/middleware"
	"xerpihan-dashboard/internal/observability"
	"xerpihan-dashboard/internal/presenter"
	"xerpihan-dashboard/internal/server"
)

type app struct {
	handler     http.Handler
	store       *dataset.Store
	rateLimiter *middleware.RateLimiter
}

// newApp loads the dataset and assembles the handler chain. A load failure
// is returned as is so main can report the offending file.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	var (
		metrics      *observability.Metrics
		loadObserver dataset.LoadObserver
		slotObserver presenter.SlotObserver
		metricsRoute http.Handler
	)
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
		loadObserver, slotObserver, metricsRoute = metrics, metrics, metrics.Handler()
	}

	store := dataset.NewStore(dataset.NewLoader(cfg.Data.Dir, logger), logger, loadObserver)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Data.LoadTimeout)
	defer cancel()
	if _, err := store.Load(loadCtx); err != nil {
		return nil, err
	}

	p := presenter.New(presenter.Options{RevenueCategory: cfg.Data.RevenueCategory}, logger, slotObserver)

	srv := server.NewServer(
		handlers.NewAPIHandlers(store, p, charts.NewRenderer(), exporter.New(logger), logger, cfg.Data.LoadTimeout),
		handlers.NewSSEHandlers(store, p, logger),
		handlers.NewPageHandlers(store, p, logger),
		metricsRoute,
		logger,
	)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	chain := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	}
	if metrics != nil {
		chain = append(chain, middleware.Metrics(metrics))
	}

	return &app{
		handler:     middleware.Chain(chain...)(srv),
		store:       store,
		rateLimiter: rateLimiter,
	}, nil
}

// startupMessage is the one line printed to stderr when the dataset cannot
// be loaded. Data errors name the offending file.
func startupMessage(err error) string {
	if de, ok := dataset.AsError(err); ok {
		return "Error: " + de.Error()
	}
	return "Error: " + err.Error()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"data_dir", cfg.Data.Dir,
		"metrics", cfg.Metrics.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		if de, ok := dataset.AsError(err); ok {
			logger.Error("failed to load dataset",
				"kind", de.Kind,
				"file", de.File,
				"error", err,
			)
		} else {
			logger.Error("failed to load dataset", "error", err)
		}
		fmt.Fprintln(os.Stderr, startupMessage(err))
		os.Exit(1)
	}

	go a.rateLimiter.Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook("rate-limiter", func(context.Context) error {
		cancel()
		return nil
	})
	gracefulServer.RegisterShutdownHook("dataset", func(context.Context) error {
		logger.Info("releasing dataset snapshot", "generation", a.store.Generation())
		return nil
	})

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
