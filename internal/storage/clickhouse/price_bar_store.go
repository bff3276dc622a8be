package clickhouse

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// PriceBarStore implements storage.PriceBarStore using ClickHouse.
// The table is a ReplacingMergeTree ordered by (symbol, date): an upsert is
// a plain insert, and reads use FINAL so the most recent version of each
// (symbol, date) row wins. Used as the analytics mirror of the
// authoritative postgres store.
type PriceBarStore struct {
	conn *Conn
}

// NewPriceBarStore creates a new PriceBarStore.
func NewPriceBarStore(conn *Conn) *PriceBarStore {
	return &PriceBarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

const priceBarColumns = `
	symbol, name, date, open, high, low, close, adj_close,
	volume, dollar_volume, addv_20d
`

// UpsertBulk writes bars keyed by (symbol, date). ReplacingMergeTree keeps
// the last inserted version per key.
func (s *PriceBarStore) UpsertBulk(ctx context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO daily_prices (`+priceBarColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			b.Symbol,
			b.Name,
			domain.Day(b.Date),
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.AdjClose,
			b.Volume,
			b.DollarVolume,
			b.ADDV20,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByDate retrieves all bars for one calendar date, ordered by symbol ASC.
func (s *PriceBarStore) GetByDate(ctx context.Context, date time.Time) ([]*domain.PriceBar, error) {
	query := `
		SELECT ` + priceBarColumns + `
		FROM daily_prices FINAL
		WHERE date = ?
		ORDER BY symbol ASC
	`

	rows, err := s.conn.Query(ctx, query, domain.Day(date))
	if err != nil {
		return nil, fmt.Errorf("get bars by date: %w", err)
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// GetBySymbol retrieves all bars for a symbol, ordered by date ASC.
func (s *PriceBarStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.PriceBar, error) {
	query := `
		SELECT ` + priceBarColumns + `
		FROM daily_prices FINAL
		WHERE symbol = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get bars by symbol: %w", err)
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// LatestDate returns the maximum date present across all bars.
func (s *PriceBarStore) LatestDate(ctx context.Context) (time.Time, bool, error) {
	var count uint64
	var max time.Time
	err := s.conn.QueryRow(ctx, `SELECT count(), max(date) FROM daily_prices`).Scan(&count, &max)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest bar date: %w", err)
	}
	if count == 0 {
		return time.Time{}, false, nil
	}
	return domain.Day(max), true, nil
}

// PrevDate returns the maximum date strictly earlier than before.
func (s *PriceBarStore) PrevDate(ctx context.Context, before time.Time) (time.Time, bool, error) {
	var count uint64
	var max time.Time
	err := s.conn.QueryRow(ctx,
		`SELECT count(), max(date) FROM daily_prices WHERE date < ?`,
		domain.Day(before),
	).Scan(&count, &max)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("previous bar date: %w", err)
	}
	if count == 0 {
		return time.Time{}, false, nil
	}
	return domain.Day(max), true, nil
}

// Count returns the number of distinct (symbol, date) bars.
func (s *PriceBarStore) Count(ctx context.Context) (int64, error) {
	var n uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM daily_prices FINAL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bars: %w", err)
	}
	return int64(n), nil
}

// RefreshADDV recomputes the trailing average dollar-volume column.
// ClickHouse mutations are heavyweight, so the refresh reads the collapsed
// rows, computes the window in memory, and re-inserts; ReplacingMergeTree
// collapses the rewrite.
func (s *PriceBarStore) RefreshADDV(ctx context.Context, window int) error {
	if window <= 0 {
		return storage.ErrInvalidInput
	}

	query := `
		SELECT ` + priceBarColumns + `
		FROM daily_prices FINAL
		ORDER BY symbol ASC, date ASC
	`
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("read bars for addv refresh: %w", err)
	}
	bars, err := scanPriceBars(rows)
	rows.Close()
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return nil
	}

	bySymbol := make(map[string][]*domain.PriceBar)
	for _, b := range bars {
		bySymbol[b.Symbol] = append(bySymbol[b.Symbol], b)
	}

	for _, series := range bySymbol {
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
		applyTrailingADDV(series, window)
	}

	return s.UpsertBulk(ctx, bars)
}

// applyTrailingADDV fills ADDV20 with the average dollar volume over the
// trailing window of observed trading days, current row included. Rows with
// no dollar volume are skipped in the average.
func applyTrailingADDV(series []*domain.PriceBar, window int) {
	for i, b := range series {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		var n int
		for _, w := range series[lo : i+1] {
			if w.DollarVolume != nil {
				sum += *w.DollarVolume
				n++
			}
		}
		if n == 0 {
			b.ADDV20 = nil
			continue
		}
		addv := sum / float64(n)
		b.ADDV20 = &addv
	}
}

// scanPriceBars scans multiple rows into a slice of PriceBar.
func scanPriceBars(rows driver.Rows) ([]*domain.PriceBar, error) {
	var bars []*domain.PriceBar

	for rows.Next() {
		var b domain.PriceBar

		err := rows.Scan(
			&b.Symbol,
			&b.Name,
			&b.Date,
			&b.Open,
			&b.High,
			&b.Low,
			&b.Close,
			&b.AdjClose,
			&b.Volume,
			&b.DollarVolume,
			&b.ADDV20,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price bar row: %w", err)
		}

		b.Date = domain.Day(b.Date)
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price bar rows: %w", err)
	}

	return bars, nil
}
