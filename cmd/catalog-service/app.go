package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"eventcatalog/internal/config"
	"eventcatalog/internal/curated"
	"eventcatalog/internal/fetch"
	"eventcatalog/internal/filtering"
	"eventcatalog/internal/logger"
	"eventcatalog/internal/merge"
	"eventcatalog/internal/normalize"
	"eventcatalog/internal/pipeline"
	"eventcatalog/internal/server"
	"eventcatalog/internal/sink"
	apperrors "eventcatalog/pkg/errors"
	"eventcatalog/pkg/health"
	"eventcatalog/pkg/metrics"
	"eventcatalog/pkg/retry"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Config *config.Config
	Logger logger.Logger

	orchestrator *pipeline.Orchestrator
	httpServer   *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("catalog-service")
	}
	return &App{
		Config: cfg,
		Logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.RegisterPipelineMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initPipeline(); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	a.initHTTPServer()

	return nil
}

func (a *App) initPipeline() error {
	var cbCfg *config.CircuitBreakerConfig
	if a.Config.CircuitBreaker.Enabled {
		cbCfg = &a.Config.CircuitBreaker
	}

	producers, err := fetch.NewProducers(a.Config.Sources, a.Config.Fetch, cbCfg)
	if err != nil {
		return err
	}

	filter, err := filtering.NewService(a.Config.Filtering, a.Logger)
	if err != nil {
		return err
	}

	store := curated.NewStore(a.Config.Catalog.CuratedPath, a.Logger)
	normalizer := normalize.NewNormalizer(a.Logger)
	merger := merge.NewMerger(a.Logger)

	writeRetry := retry.Policy{
		MaxAttempts:     a.Config.Catalog.WriteRetry.MaxAttempts,
		InitialInterval: a.Config.Catalog.WriteRetry.InitialInterval,
		MaxInterval:     a.Config.Catalog.WriteRetry.MaxInterval,
		Multiplier:      a.Config.Catalog.WriteRetry.Multiplier,
	}
	snapshots := sink.NewFileSink(a.Config.Catalog.SnapshotPath, writeRetry, a.Logger)

	a.orchestrator = pipeline.NewOrchestrator(store, producers, normalizer, filter, merger, snapshots, a.Logger)

	if a.Config.Catalog.ICSPath != "" {
		a.orchestrator.SetFeedSink(sink.NewFeedWriter(a.Config.Catalog.ICSPath, a.Logger))
	}

	return nil
}

func (a *App) initHTTPServer() {
	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewCuratedStoreChecker(a.Config.Catalog.CuratedPath))
	healthRegistry.Register(health.NewSnapshotDirChecker(a.Config.Catalog.SnapshotPath))

	handler := server.NewHandler(a.orchestrator, healthRegistry, a.Logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      server.New(handler),
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
}

// RunOnce executes a single pipeline run.
func (a *App) RunOnce(ctx context.Context) error {
	_, err := a.orchestrator.Run(ctx)
	return err
}

// Serve runs the cron schedule and the HTTP endpoints until the context is
// canceled. A tick that fires while a run is still executing is discarded
// with a warning.
func (a *App) Serve(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(gCtx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return a.runScheduler(gCtx)
	})

	if a.Config.Scheduler.RunOnStart {
		a.Logger.InfowCtx(ctx, "Running initial update")
		if _, err := a.orchestrator.Run(ctx); err != nil {
			a.Logger.ErrorwCtx(ctx, "Initial update failed", "error", err)
		}
	}

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (a *App) runScheduler(ctx context.Context) error {
	if a.Config.Scheduler.Cron == "" {
		a.Logger.InfowCtx(ctx, "Scheduler disabled, runs are trigger-only")
		<-ctx.Done()
		return ctx.Err()
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(a.Config.Scheduler.Cron, func() {
		if _, err := a.orchestrator.Run(ctx); err != nil {
			if apperrors.IsRunInFlight(err) {
				a.Logger.WarnwCtx(ctx, "Scheduled tick skipped, previous run still in flight")
				return
			}
			a.Logger.ErrorwCtx(ctx, "Scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pipeline runs: %w", err)
	}

	a.Logger.InfowCtx(ctx, "Scheduler started", "cron", a.Config.Scheduler.Cron)
	scheduler.Start()

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(shutdownTimeout):
		a.Logger.WarnwCtx(context.Background(), "Scheduler stop timed out")
	}

	return ctx.Err()
}
