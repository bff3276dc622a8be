// Package loader implements the daily price load: resolve the universe,
// fetch bars per symbol, normalize, and upsert.
package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/observability"
	"equity-movers-lab/internal/provider"
	"equity-movers-lab/internal/storage"
	"equity-movers-lab/internal/universe"
)

// DefaultWorkers is the per-symbol fetch concurrency when Options.Workers
// is unset.
const DefaultWorkers = 8

// Options configures a Loader.
type Options struct {
	Universe *universe.Resolver
	Provider provider.BarProvider
	Bars     storage.PriceBarStore
	Tickers  storage.TickerStore

	// Mirror is an optional secondary bar sink (analytics store). Mirror
	// write failures are reported per symbol, never fatal.
	Mirror storage.PriceBarStore

	// Symbols restricts the run to these canonical symbols when non-empty.
	Symbols []string

	Workers int
	Logger  zerolog.Logger
}

// Loader runs price loads against a resolved universe.
type Loader struct {
	opts Options
}

// New creates a Loader. Universe, Provider, Bars, and Tickers are required.
func New(opts Options) (*Loader, error) {
	if opts.Universe == nil || opts.Provider == nil || opts.Bars == nil || opts.Tickers == nil {
		return nil, fmt.Errorf("%w: loader requires universe, provider, bars, and tickers", storage.ErrInvalidInput)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Loader{opts: opts}, nil
}

// symbolResult is one symbol's outcome: normalized bars or an error.
type symbolResult struct {
	symbol string
	bars   []*domain.PriceBar
	err    error
}

// LoadRange loads daily bars for every universe member over [start, end]
// inclusive. Per-symbol fetch and normalization failures are collected in
// the report; a store write failure aborts the run. With dryRun set,
// everything runs except the writes and the last_seen touch.
func (l *Loader) LoadRange(ctx context.Context, start, end time.Time, selector domain.UniverseSelector, dryRun bool) (*domain.LoadReport, error) {
	began := time.Now()

	startDay := domain.Day(start)
	endDay := domain.Day(end)
	if endDay.Before(startDay) {
		return nil, fmt.Errorf("%w: end %s before start %s", storage.ErrInvalidInput,
			endDay.Format("2006-01-02"), startDay.Format("2006-01-02"))
	}

	entries, err := l.opts.Universe.Resolve(ctx, selector, l.opts.Symbols)
	if err != nil {
		observability.RecordLoadRun("error", time.Since(began).Seconds())
		return nil, fmt.Errorf("resolve universe %q: %w", selector, err)
	}
	observability.RecordSymbolsResolved(len(entries))

	l.opts.Logger.Info().
		Str("universe", string(selector)).
		Int("symbols", len(entries)).
		Str("start", startDay.Format("2006-01-02")).
		Str("end", endDay.Format("2006-01-02")).
		Bool("dry_run", dryRun).
		Msg("starting price load")

	report := &domain.LoadReport{SymbolsConsidered: len(entries)}

	results := l.fetchAll(ctx, entries, startDay, endDay)

	var loaded []string
	for _, res := range results {
		if res.err != nil {
			report.Errors = append(report.Errors, domain.SymbolError{
				Symbol: res.symbol,
				Err:    res.err.Error(),
			})
			continue
		}
		report.BarsFetched += len(res.bars)
		if len(res.bars) == 0 {
			continue
		}

		if dryRun {
			l.opts.Logger.Debug().
				Str("symbol", res.symbol).
				Int("bars", len(res.bars)).
				Msg("dry run, skipping write")
			continue
		}

		if err := l.opts.Bars.UpsertBulk(ctx, res.bars); err != nil {
			observability.RecordLoadRun("error", time.Since(began).Seconds())
			return nil, fmt.Errorf("upsert bars for %s: %w", res.symbol, err)
		}
		report.BarsWritten += len(res.bars)
		loaded = append(loaded, res.symbol)

		if l.opts.Mirror != nil {
			if err := l.opts.Mirror.UpsertBulk(ctx, res.bars); err != nil {
				observability.RecordSymbolError("mirror")
				report.Errors = append(report.Errors, domain.SymbolError{
					Symbol: res.symbol,
					Err:    fmt.Sprintf("mirror write: %v", err),
				})
			}
		}
	}

	if !dryRun && len(loaded) > 0 {
		if err := l.opts.Tickers.TouchLastSeen(ctx, loaded, time.Now().UTC()); err != nil {
			observability.RecordLoadRun("error", time.Since(began).Seconds())
			return nil, fmt.Errorf("touch last_seen: %w", err)
		}
	}

	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].Symbol < report.Errors[j].Symbol
	})

	observability.RecordBarsFetched(report.BarsFetched)
	observability.RecordBarsWritten(report.BarsWritten)
	observability.RecordLoadRun("ok", time.Since(began).Seconds())

	l.opts.Logger.Info().
		Int("bars_fetched", report.BarsFetched).
		Int("bars_written", report.BarsWritten).
		Int("errors", len(report.Errors)).
		Dur("elapsed", time.Since(began)).
		Msg("price load complete")

	return report, nil
}

// fetchAll fetches and normalizes bars for every entry over a bounded
// worker pool. Results come back in universe order.
func (l *Loader) fetchAll(ctx context.Context, entries []universe.Entry, startDay, endDay time.Time) []symbolResult {
	results := make([]symbolResult, len(entries))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < l.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				entry := entries[i]
				results[i] = l.fetchOne(ctx, entry, startDay, endDay)
			}
		}()
	}

feed:
	for i := range entries {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Unprocessed entries after a cancel surface as per-symbol errors.
	for i := range results {
		if results[i].symbol == "" {
			results[i] = symbolResult{symbol: entries[i].Symbol, err: ctx.Err()}
		}
	}
	return results
}

func (l *Loader) fetchOne(ctx context.Context, entry universe.Entry, startDay, endDay time.Time) symbolResult {
	raw, err := l.opts.Provider.FetchBars(ctx, entry.ProviderSymbol, startDay, endDay)
	if err != nil {
		observability.RecordSymbolError("fetch")
		l.opts.Logger.Warn().
			Str("symbol", entry.Symbol).
			Str("provider_symbol", entry.ProviderSymbol).
			Err(err).
			Msg("fetch failed")
		return symbolResult{symbol: entry.Symbol, err: fmt.Errorf("fetch %s: %w", entry.ProviderSymbol, err)}
	}

	bars := normalize(entry, raw, startDay, endDay)
	return symbolResult{symbol: entry.Symbol, bars: bars}
}

// normalize converts raw provider bars to canonical bars: dates truncated to
// UTC calendar days, out-of-range and non-positive-close bars dropped,
// duplicate dates resolved last-wins, dollar volume derived.
func normalize(entry universe.Entry, raw []provider.Bar, startDay, endDay time.Time) []*domain.PriceBar {
	byDate := make(map[time.Time]*domain.PriceBar, len(raw))
	var order []time.Time

	for _, b := range raw {
		day := domain.Day(b.Date)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		if b.Close <= 0 {
			continue
		}

		open, high, low, closePx := b.Open, b.High, b.Low, b.Close
		volume := b.Volume
		dollarVolume := closePx * float64(volume)

		bar := &domain.PriceBar{
			Symbol:       entry.Symbol,
			Name:         entry.Name,
			Date:         day,
			Open:         &open,
			High:         &high,
			Low:          &low,
			Close:        &closePx,
			AdjClose:     b.AdjClose,
			Volume:       &volume,
			DollarVolume: &dollarVolume,
		}

		if _, dup := byDate[day]; !dup {
			order = append(order, day)
		}
		byDate[day] = bar
	}

	bars := make([]*domain.PriceBar, 0, len(byDate))
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })
	for _, day := range order {
		bars = append(bars, byDate[day])
	}
	return bars
}
