// Package movers computes the day-over-day movers snapshot.
package movers

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/observability"
	"equity-movers-lab/internal/storage"
)

// DefaultThresholdPct is the minimum absolute percent change for a symbol
// to qualify as a mover.
const DefaultThresholdPct = 15.0

// Engine builds mover snapshots from stored daily bars.
type Engine struct {
	bars      storage.PriceBarStore
	snapshots storage.SnapshotStore
	logger    zerolog.Logger
}

// NewEngine creates a snapshot engine.
func NewEngine(bars storage.PriceBarStore, snapshots storage.SnapshotStore, logger zerolog.Logger) *Engine {
	return &Engine{bars: bars, snapshots: snapshots, logger: logger}
}

// Snapshot computes and stores the movers snapshot for asOf, replacing any
// existing snapshot for that date. A nil asOf means the latest date with
// stored bars. The computation is a pure function of the bar store, so
// reruns for the same date and threshold produce identical rows. Returns
// the number of rows stored.
func (e *Engine) Snapshot(ctx context.Context, thresholdPct float64, asOf *time.Time) (int, error) {
	began := time.Now()

	if thresholdPct < 0 {
		return 0, fmt.Errorf("%w: threshold must be non-negative, got %v", storage.ErrInvalidInput, thresholdPct)
	}

	var day time.Time
	if asOf != nil {
		day = domain.Day(*asOf)
	} else {
		latest, ok, err := e.bars.LatestDate(ctx)
		if err != nil {
			observability.RecordSnapshotRun("error", 0, time.Since(began).Seconds())
			return 0, fmt.Errorf("latest bar date: %w", err)
		}
		if !ok {
			e.logger.Info().Msg("no bars stored, nothing to snapshot")
			observability.RecordSnapshotRun("ok", 0, time.Since(began).Seconds())
			return 0, nil
		}
		day = latest
	}

	prev, ok, err := e.bars.PrevDate(ctx, day)
	if err != nil {
		observability.RecordSnapshotRun("error", 0, time.Since(began).Seconds())
		return 0, fmt.Errorf("previous trading day before %s: %w", day.Format("2006-01-02"), err)
	}
	if !ok {
		e.logger.Info().
			Str("as_of", day.Format("2006-01-02")).
			Msg("no previous trading day, nothing to snapshot")
		observability.RecordSnapshotRun("ok", 0, time.Since(began).Seconds())
		return 0, nil
	}

	nowBars, err := e.bars.GetByDate(ctx, day)
	if err != nil {
		observability.RecordSnapshotRun("error", 0, time.Since(began).Seconds())
		return 0, fmt.Errorf("bars for %s: %w", day.Format("2006-01-02"), err)
	}
	prevBars, err := e.bars.GetByDate(ctx, prev)
	if err != nil {
		observability.RecordSnapshotRun("error", 0, time.Since(began).Seconds())
		return 0, fmt.Errorf("bars for %s: %w", prev.Format("2006-01-02"), err)
	}

	rows := buildMovers(day, nowBars, prevBars, thresholdPct)

	// Replace even when empty: an empty set is the correct snapshot for a
	// quiet day and must clear a stale one.
	inserted, err := e.snapshots.ReplaceForDate(ctx, day, rows)
	if err != nil {
		observability.RecordSnapshotRun("error", 0, time.Since(began).Seconds())
		return 0, fmt.Errorf("replace snapshot for %s: %w", day.Format("2006-01-02"), err)
	}

	observability.RecordSnapshotRun("ok", inserted, time.Since(began).Seconds())
	e.logger.Info().
		Str("as_of", day.Format("2006-01-02")).
		Str("prev", prev.Format("2006-01-02")).
		Float64("threshold_pct", thresholdPct).
		Int("movers", inserted).
		Dur("elapsed", time.Since(began)).
		Msg("movers snapshot stored")

	return inserted, nil
}

// buildMovers pairs each bar on asOf with the symbol's bar on the previous
// trading day and keeps symbols whose absolute percent change meets the
// threshold. Rows come back ordered by abs change descending, symbol
// ascending, with dense ranks assigned.
func buildMovers(asOf time.Time, nowBars, prevBars []*domain.PriceBar, thresholdPct float64) []*domain.MoverSnapshotRow {
	prevClose := make(map[string]float64, len(prevBars))
	for _, b := range prevBars {
		if b.Close == nil || *b.Close == 0 {
			continue
		}
		prevClose[b.Symbol] = *b.Close
	}

	var rows []*domain.MoverSnapshotRow
	for _, b := range nowBars {
		if b.Close == nil {
			continue
		}
		closePrev, ok := prevClose[b.Symbol]
		if !ok {
			continue
		}

		pct := (*b.Close/closePrev - 1) * 100
		abs := math.Abs(pct)
		if abs < thresholdPct {
			continue
		}

		rows = append(rows, &domain.MoverSnapshotRow{
			AsOf:            asOf,
			Symbol:          b.Symbol,
			Name:            b.Name,
			PctChange1D:     pct,
			ClosePrev:       closePrev,
			CloseNow:        *b.Close,
			VolumeNow:       b.Volume,
			DollarVolumeNow: b.DollarVolume,
			AbsChange1D:     abs,
			Direction:       domain.DirectionOf(pct),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AbsChange1D != rows[j].AbsChange1D {
			return rows[i].AbsChange1D > rows[j].AbsChange1D
		}
		return rows[i].Symbol < rows[j].Symbol
	})

	// Dense rank: ties share a rank, the next distinct magnitude takes the
	// next integer.
	rank := 0
	for i, r := range rows {
		if i == 0 || r.AbsChange1D != rows[i-1].AbsChange1D {
			rank++
		}
		r.RankOverall = rank
	}

	return rows
}
