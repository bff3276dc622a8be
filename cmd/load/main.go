package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"equity-movers-lab/internal/config"
	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/loader"
	"equity-movers-lab/internal/observability"
	"equity-movers-lab/internal/provider"
	"equity-movers-lab/internal/storage"
	chstore "equity-movers-lab/internal/storage/clickhouse"
	"equity-movers-lab/internal/storage/memory"
	"equity-movers-lab/internal/storage/migrations"
	pgstore "equity-movers-lab/internal/storage/postgres"
	"equity-movers-lab/internal/universe"
)

func main() {
	// Parse flags
	start := flag.String("start", "", "Load range start date (YYYY-MM-DD); default: today")
	end := flag.String("end", "", "Load range end date (YYYY-MM-DD); default: start")
	universeFlag := flag.String("universe", "all", "Universe selector: all or tracked")
	symbols := flag.String("symbols", "", "Comma-separated symbol allowlist (empty for whole universe)")
	dryRun := flag.Bool("dry-run", false, "Fetch and normalize without writing")
	workers := flag.Int("workers", loader.DefaultWorkers, "Concurrent symbol fetches")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default: POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Optional ClickHouse mirror DSN (default: CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	migrate := flag.Bool("migrate", false, "Apply schema migrations before loading")
	refreshADDV := flag.Int("refresh-addv", 0, "Recompute trailing average dollar volume over this many trading days after the load (0 to skip)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	if *postgresDSN == "" {
		*postgresDSN = cfg.PostgresDSN
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = cfg.ClickhouseDSN
	}

	startMetricsServer(*metricsAddr, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg, runOptions{
		start:         *start,
		end:           *end,
		universe:      *universeFlag,
		symbols:       *symbols,
		dryRun:        *dryRun,
		workers:       *workers,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		useMemory:     *useMemory,
		migrate:       *migrate,
		refreshADDV:   *refreshADDV,
	}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("load failed")
	}
}

type runOptions struct {
	start, end    string
	universe      string
	symbols       string
	dryRun        bool
	workers       int
	postgresDSN   string
	clickhouseDSN string
	useMemory     bool
	migrate       bool
	refreshADDV   int
}

func run(ctx context.Context, logger zerolog.Logger, cfg *config.Config, opts runOptions) error {
	startDay, endDay, err := parseRange(opts.start, opts.end)
	if err != nil {
		return err
	}

	selector := domain.UniverseSelector(opts.universe)
	if !selector.Valid() {
		return fmt.Errorf("unknown universe %q (want all or tracked)", opts.universe)
	}

	if cfg.AlpacaAPIKey == "" || cfg.AlpacaSecretKey == "" {
		return fmt.Errorf("ALPACA_API_KEY and ALPACA_SECRET_KEY are required")
	}

	if !opts.useMemory && opts.postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create stores (use interfaces)
	var tickerStore storage.TickerStore = memory.NewTickerStore()
	var barStore storage.PriceBarStore = memory.NewPriceBarStore()

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if opts.migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info().Msg("postgres migrations applied")
		}

		tickerStore = pgstore.NewTickerStore(pool)
		barStore = pgstore.NewPriceBarStore(pool)
	}

	// Optional analytics mirror.
	var mirror storage.PriceBarStore
	if opts.clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		if opts.migrate {
			if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
				return fmt.Errorf("apply clickhouse migrations: %w", err)
			}
			logger.Info().Msg("clickhouse migrations applied")
		}
		mirror = chstore.NewPriceBarStore(conn)
	}

	l, err := loader.New(loader.Options{
		Universe: universe.NewResolver(tickerStore),
		Provider: provider.NewAlpacaProvider(cfg.AlpacaAPIKey, cfg.AlpacaSecretKey),
		Bars:     barStore,
		Tickers:  tickerStore,
		Mirror:   mirror,
		Symbols:  splitSymbols(opts.symbols),
		Workers:  opts.workers,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	report, err := l.LoadRange(ctx, startDay, endDay, selector, opts.dryRun)
	if err != nil {
		return err
	}

	for _, symErr := range report.Errors {
		logger.Warn().Str("symbol", symErr.Symbol).Str("error", symErr.Err).Msg("symbol failed")
	}
	logger.Info().
		Int("symbols", report.SymbolsConsidered).
		Int("bars_fetched", report.BarsFetched).
		Int("bars_written", report.BarsWritten).
		Int("errors", len(report.Errors)).
		Msg("load report")

	if opts.refreshADDV > 0 && !opts.dryRun {
		if err := barStore.RefreshADDV(ctx, opts.refreshADDV); err != nil {
			return fmt.Errorf("refresh addv: %w", err)
		}
		logger.Info().Int("window", opts.refreshADDV).Msg("average dollar volume refreshed")
	}

	return nil
}

// parseRange resolves the load range: start defaults to today, end to start.
func parseRange(start, end string) (time.Time, time.Time, error) {
	startDay := domain.Day(time.Now().UTC())
	if start != "" {
		parsed, err := time.Parse("2006-01-02", start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --start: %w", err)
		}
		startDay = parsed
	}

	endDay := startDay
	if end != "" {
		parsed, err := time.Parse("2006-01-02", end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --end: %w", err)
		}
		endDay = parsed
	}
	return startDay, endDay, nil
}

func splitSymbols(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, sym := range strings.Split(s, ",") {
		sym = strings.TrimSpace(strings.ToUpper(sym))
		if sym != "" {
			result = append(result, sym)
		}
	}
	return result
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("component", "load").
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
