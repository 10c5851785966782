package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"coin-tracker/internal/binance"
	"coin-tracker/internal/config"
	"coin-tracker/internal/forecast"
	"coin-tracker/internal/ingestion"
	"coin-tracker/internal/observability"
	"coin-tracker/internal/storage"
	"coin-tracker/internal/storage/memory"
	"coin-tracker/internal/storage/migrations"
	pgstore "coin-tracker/internal/storage/postgres"
)

func main() {
	// Parse flags
	mode := flag.String("mode", "track", "Run mode: track, backfill, or predict")
	configPath := flag.String("config", "", "Path to YAML config file")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	symbols := flag.String("symbols", "", "Comma-separated symbols to track (overrides config)")
	fromTime := flag.String("from-time", "", "Start time for backfill (RFC3339)")
	toTime := flag.String("to-time", "", "End time for backfill (RFC3339)")
	horizon := flag.Duration("horizon", 0, "Prediction horizon for predict mode (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config, empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[tracker] ", log.LstdFlags)

	// Load config
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadWithEnv(*configPath)
		if err != nil {
			logger.Fatalf("Load config: %v", err)
		}
		cfg = loaded
	}

	// Flag overrides
	if *symbols != "" {
		cfg.Symbols = splitSymbols(*symbols)
	}
	if *postgresDSN != "" {
		cfg.Postgres.DSN = *postgresDSN
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if len(cfg.Symbols) == 0 {
		logger.Fatal("No symbols to track. Use --symbols or the config file")
	}

	metrics := observability.NewMetrics("")

	// Start metrics server if enabled
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Create stores
	var priceStore storage.PriceRecordStore = memory.NewPriceRecordStore()
	var predictionStore storage.PredictionStore = memory.NewPredictionStore()

	if !*useMemory {
		if cfg.Postgres.DSN == "" {
			logger.Fatal("--postgres-dsn is required when not using --use-memory")
		}

		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}

		priceStore = pgstore.NewPriceRecordStore(pool)
		predictionStore = pgstore.NewPredictionStore(pool)
	}

	// Upstream feed
	var feedOpts []binance.ClientOption
	if cfg.Binance.BaseURL != "" {
		feedOpts = append(feedOpts, binance.WithBaseURL(cfg.Binance.BaseURL))
	}
	feed := binance.NewClient(feedOpts...)

	// Run based on mode
	var err error
	switch *mode {
	case "track":
		err = runTrack(ctx, logger, metrics, cfg, feed, priceStore)
	case "backfill":
		err = runBackfill(ctx, logger, metrics, cfg, feed, priceStore, *fromTime, *toTime)
	case "predict":
		err = runPredict(ctx, logger, metrics, cfg, priceStore, predictionStore, *horizon)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// runTrack backfills the configured window for each symbol, then polls
// live prices until the context is cancelled.
func runTrack(ctx context.Context, logger *log.Logger, metrics *observability.Metrics,
	cfg *config.Config, feed ingestion.PriceFeed, store storage.PriceRecordStore) error {

	backfiller := ingestion.NewBackfiller(ingestion.BackfillOptions{
		Feed:    feed,
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
	})

	since := time.Now().UTC().Add(-cfg.BackfillWindow())
	for _, symbol := range cfg.Symbols {
		result, err := backfiller.BackfillSince(ctx, symbol, cfg.Interval, since)
		if err != nil {
			// Live polling still works without history; log and move on.
			logger.Printf("Backfill for %s failed: %v", symbol, err)
			continue
		}
		logger.Printf("Backfill for %s: %d candles, %d inserted, %d duplicates skipped",
			symbol, result.CandlesFetched, result.RecordsInserted, result.DuplicatesSkipped)
	}

	poller := ingestion.NewPoller(ingestion.PollerOptions{
		Feed:     feed,
		Store:    store,
		Symbols:  cfg.Symbols,
		Interval: cfg.Interval,
		Cadence:  cfg.PollCadence(),
		Logger:   logger,
		Metrics:  metrics,
	})

	logger.Printf("Tracking %v every %s", cfg.Symbols, cfg.PollCadence())
	return poller.Run(ctx)
}

// runBackfill performs a one-shot historical backfill for each symbol.
func runBackfill(ctx context.Context, logger *log.Logger, metrics *observability.Metrics,
	cfg *config.Config, feed ingestion.PriceFeed, store storage.PriceRecordStore,
	fromTime, toTime string) error {

	from := time.Now().UTC().Add(-cfg.BackfillWindow())
	to := time.Now().UTC()

	var err error
	if fromTime != "" {
		from, err = time.Parse(time.RFC3339, fromTime)
		if err != nil {
			return fmt.Errorf("parse --from-time: %w", err)
		}
	}
	if toTime != "" {
		to, err = time.Parse(time.RFC3339, toTime)
		if err != nil {
			return fmt.Errorf("parse --to-time: %w", err)
		}
	}
	if !from.Before(to) {
		return fmt.Errorf("--from-time %s must be before --to-time %s", from, to)
	}

	backfiller := ingestion.NewBackfiller(ingestion.BackfillOptions{
		Feed:    feed,
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
	})

	for _, symbol := range cfg.Symbols {
		result, err := backfiller.Backfill(ctx, symbol, cfg.Interval, from, to)
		if err != nil {
			return fmt.Errorf("backfill %s: %w", symbol, err)
		}
		logger.Printf("Backfill for %s: %d candles, %d inserted, %d duplicates skipped in %s",
			symbol, result.CandlesFetched, result.RecordsInserted, result.DuplicatesSkipped, result.Duration)
	}

	return nil
}

// runPredict computes and stores one forecast per symbol from already
// persisted history.
func runPredict(ctx context.Context, logger *log.Logger, metrics *observability.Metrics,
	cfg *config.Config, prices storage.PriceRecordStore, predictions storage.PredictionStore,
	horizon time.Duration) error {

	if horizon == 0 {
		horizon = cfg.ForecastHorizon()
	}

	forecaster := forecast.NewForecaster(forecast.ForecasterOptions{
		PriceStore:      prices,
		PredictionStore: predictions,
		Window:          cfg.ForecastWindow(),
		Interval:        cfg.Interval,
		Logger:          logger,
		Metrics:         metrics,
	})

	for _, symbol := range cfg.Symbols {
		prediction, err := forecaster.Predict(ctx, symbol, horizon)
		if err != nil {
			if errors.Is(err, forecast.ErrNoData) {
				logger.Printf("No price history for %s in the last %s, skipping", symbol, cfg.ForecastWindow())
				continue
			}
			return fmt.Errorf("predict %s: %w", symbol, err)
		}
		logger.Printf("%s in %s: %.2f (±%.2f)", symbol, horizon, prediction.PredictedPrice, prediction.ErrorMargin)
	}

	return nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToUpper(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
