package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/openlane/matchcrawler/internal/apiclient"
	"github.com/openlane/matchcrawler/internal/backfill"
	"github.com/openlane/matchcrawler/internal/breaker"
	"github.com/openlane/matchcrawler/internal/config"
	"github.com/openlane/matchcrawler/internal/crawler"
	"github.com/openlane/matchcrawler/internal/dedup"
	"github.com/openlane/matchcrawler/internal/events"
	"github.com/openlane/matchcrawler/internal/obs"
	"github.com/openlane/matchcrawler/internal/queue"
	"github.com/openlane/matchcrawler/internal/ratelimit"
	"github.com/openlane/matchcrawler/internal/store"
)

var version = "dev"

func main() {
	var configPath string
	var showVersion bool
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&configPath, "config", "config/config.yaml", "Path to YAML config")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	_ = fs.Parse(os.Args[1:])

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	runID := uuid.NewString()
	logger.Info("starting crawler", obs.String("run_id", runID), obs.String("version", version), obs.String("regions", fmt.Sprintf("%v", cfg.Regions)))

	tp, err := obs.MaybeInitTracing(cfg)
	if err != nil {
		logger.Warn("tracing init failed", obs.Err(err))
	}
	if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	st, err := store.Open(cfg.StoreURL)
	if err != nil {
		logger.Error("failed to open store", obs.Err(err))
		os.Exit(1)
	}
	defer st.Close()

	limiter := ratelimit.New(logger, cfg.AppLimitPerSecond, cfg.AppLimitPerTwoMinutes, cfg.MaxRetries, time.Duration(cfg.RetryDelayMs)*time.Millisecond)
	breakers := breaker.NewRegistry(cfg.CircuitBreaker.Window, cfg.CircuitBreaker.CooldownPeriod, cfg.CircuitBreaker.FailureThreshold, cfg.CircuitBreaker.MinSamples)
	gateway := apiclient.NewGateway(cfg.ApiKey, limiter, breakers, st, logger, cfg.MaxRetries, time.Duration(cfg.RetryDelayMs)*time.Millisecond)

	dedupCache := dedup.New(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.DedupTTL, logger)
	defer dedupCache.Close()

	publisher, err := events.New(cfg.Events.URL, cfg.Events.SubjectPrefix, logger)
	if err != nil {
		logger.Warn("event publisher init failed, continuing without it", obs.Err(err))
	}
	defer publisher.Close()

	q := queue.New()
	worker := crawler.NewWorker(gateway, st, dedupCache, publisher, logger)

	bf, err := backfill.New(cfg.Backfill.Schedule, cfg.Backfill.BatchSize, cfg.Regions[0], st, q, logger)
	if err != nil {
		logger.Warn("backfill scheduler init failed, continuing without it", obs.Err(err))
	}

	healthInterval := time.Duration(cfg.HealthCheckIntervalSeconds) * time.Second
	stateInterval := time.Duration(cfg.StateSaveIntervalSeconds) * time.Second
	engine := crawler.New(q, worker, st, limiter, bf, logger, cfg.Regions, healthInterval, stateInterval)

	httpSrv := obs.StartHTTPServer(cfg, func(ctx context.Context) error {
		return st.Ping()
	})
	defer func() { _ = httpSrv.Shutdown(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", obs.String("signal", sig.String()))
		cancel()
		select {
		case sig2 := <-sigCh:
			logger.Warn("second signal received, exiting immediately", obs.String("signal", sig2.String()))
			os.Exit(1)
		case <-time.After(5 * time.Second):
		}
	}()

	if err := engine.Start(ctx); err != nil {
		logger.Error("engine error", obs.Err(err))
		os.Exit(1)
	}
	logger.Info("crawler stopped cleanly", obs.String("run_id", runID))
}
