package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"equity-movers-lab/internal/config"
	"equity-movers-lab/internal/movers"
	"equity-movers-lab/internal/observability"
	"equity-movers-lab/internal/storage"
	"equity-movers-lab/internal/storage/memory"
	"equity-movers-lab/internal/storage/migrations"
	pgstore "equity-movers-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	threshold := flag.Float64("threshold", movers.DefaultThresholdPct, "Minimum absolute percent change to qualify as a mover")
	asOfFlag := flag.String("as-of", "", "Snapshot date (YYYY-MM-DD); default: latest date with bars")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default: POSTGRES_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	migrate := flag.Bool("migrate", false, "Apply schema migrations before snapshotting")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	if *postgresDSN == "" {
		*postgresDSN = cfg.PostgresDSN
	}

	startMetricsServer(*metricsAddr, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, *threshold, *asOfFlag, *postgresDSN, *useMemory, *migrate); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("snapshot failed")
	}
}

func run(ctx context.Context, logger zerolog.Logger, threshold float64, asOfFlag, postgresDSN string, useMemory, migrate bool) error {
	var asOf *time.Time
	if asOfFlag != "" {
		parsed, err := time.Parse("2006-01-02", asOfFlag)
		if err != nil {
			return fmt.Errorf("parse --as-of: %w", err)
		}
		asOf = &parsed
	}

	if !useMemory && postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create stores (use interfaces)
	var barStore storage.PriceBarStore = memory.NewPriceBarStore()
	var snapshotStore storage.SnapshotStore = memory.NewSnapshotStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info().Msg("postgres migrations applied")
		}

		barStore = pgstore.NewPriceBarStore(pool)
		snapshotStore = pgstore.NewSnapshotStore(pool)
	}

	engine := movers.NewEngine(barStore, snapshotStore, logger)
	rows, err := engine.Snapshot(ctx, threshold, asOf)
	if err != nil {
		return err
	}

	logger.Info().Int("movers", rows).Msg("snapshot complete")
	return nil
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("component", "snapshot").
		Logger()
}

func startMetricsServer(addr string, logger zerolog.Logger) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		logger.Info().Str("addr", addr).Msg("starting metrics server")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}
