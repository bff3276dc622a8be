package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"equity-movers-lab/internal/config"
	"equity-movers-lab/internal/query"
	"equity-movers-lab/internal/reporting"
	pgstore "equity-movers-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	asOfFlag := flag.String("as-of", "", "Snapshot date to export (YYYY-MM-DD); default: latest snapshot")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default: POSTGRES_DSN)")
	out := flag.String("out", "", "Output CSV path (empty for stdout)")

	flag.Parse()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	if *postgresDSN == "" {
		*postgresDSN = cfg.PostgresDSN
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, *asOfFlag, *postgresDSN, *out); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("report failed")
	}
}

func run(ctx context.Context, logger zerolog.Logger, asOfFlag, postgresDSN, out string) error {
	if postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	view := query.NewView(pgstore.NewSnapshotStore(pool))

	if asOfFlag != "" {
		parsed, err := time.Parse("2006-01-02", asOfFlag)
		if err != nil {
			return fmt.Errorf("parse --as-of: %w", err)
		}
		result, err := view.SnapshotFor(ctx, parsed)
		if err != nil {
			return err
		}
		return write(logger, out, parsed, reporting.RenderCSV(result), len(result))
	}

	result, latest, ok, err := view.LatestSnapshot(ctx)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info().Msg("no snapshot stored yet")
		return write(logger, out, time.Time{}, reporting.RenderCSV(nil), 0)
	}
	return write(logger, out, latest, reporting.RenderCSV(result), len(result))
}

func write(logger zerolog.Logger, out string, asOf time.Time, csv string, rows int) error {
	if out == "" {
		fmt.Print(csv)
		return nil
	}
	if err := os.WriteFile(out, []byte(csv), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.Info().
		Str("path", out).
		Str("as_of", asOf.Format("2006-01-02")).
		Int("rows", rows).
		Msg("report written")
	return nil
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("component", "report").
		Logger()
}
