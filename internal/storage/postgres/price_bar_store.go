package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// PriceBarStore implements storage.PriceBarStore using PostgreSQL.
type PriceBarStore struct {
	pool *Pool
}

// NewPriceBarStore creates a new PriceBarStore.
func NewPriceBarStore(pool *Pool) *PriceBarStore {
	return &PriceBarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

const priceBarColumns = `
	symbol, name, date, open, high, low, close, adj_close,
	volume, dollar_volume, addv_20d
`

// UpsertBulk writes bars keyed by (symbol, date) in one transaction.
// An existing row for the same key is fully overwritten.
func (s *PriceBarStore) UpsertBulk(ctx context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO daily_prices (` + priceBarColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (symbol, date) DO UPDATE SET
			name = EXCLUDED.name,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume,
			dollar_volume = EXCLUDED.dollar_volume,
			addv_20d = EXCLUDED.addv_20d
	`

	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
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
			return fmt.Errorf("upsert bar %s/%s: %w", b.Symbol, b.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByDate retrieves all bars for one calendar date, ordered by symbol ASC.
func (s *PriceBarStore) GetByDate(ctx context.Context, date time.Time) ([]*domain.PriceBar, error) {
	query := `
		SELECT ` + priceBarColumns + `
		FROM daily_prices
		WHERE date = $1
		ORDER BY symbol ASC
	`

	rows, err := s.pool.Query(ctx, query, domain.Day(date))
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
		FROM daily_prices
		WHERE symbol = $1
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get bars by symbol: %w", err)
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// LatestDate returns the maximum date present across all bars.
// Resolved fresh on every call, never cached.
func (s *PriceBarStore) LatestDate(ctx context.Context) (time.Time, bool, error) {
	var max *time.Time
	err := s.pool.QueryRow(ctx, `SELECT max(date) FROM daily_prices`).Scan(&max)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest bar date: %w", err)
	}
	if max == nil {
		return time.Time{}, false, nil
	}
	return domain.Day(*max), true, nil
}

// PrevDate returns the maximum date strictly earlier than before.
func (s *PriceBarStore) PrevDate(ctx context.Context, before time.Time) (time.Time, bool, error) {
	var max *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT max(date) FROM daily_prices WHERE date < $1`,
		domain.Day(before),
	).Scan(&max)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("previous bar date: %w", err)
	}
	if max == nil {
		return time.Time{}, false, nil
	}
	return domain.Day(*max), true, nil
}

// Count returns the total number of stored bars.
func (s *PriceBarStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM daily_prices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bars: %w", err)
	}
	return n, nil
}

// RefreshADDV recomputes addv_20d as the trailing average dollar volume over
// the given window of observed trading days, per symbol. The frame bound
// cannot be a bind parameter, so the validated window is formatted in.
func (s *PriceBarStore) RefreshADDV(ctx context.Context, window int) error {
	if window <= 0 {
		return storage.ErrInvalidInput
	}

	query := fmt.Sprintf(`
		UPDATE daily_prices p
		SET addv_20d = w.addv
		FROM (
			SELECT symbol, date,
			       avg(dollar_volume) OVER (
			           PARTITION BY symbol
			           ORDER BY date
			           ROWS BETWEEN %d PRECEDING AND CURRENT ROW
			       ) AS addv
			FROM daily_prices
		) w
		WHERE p.symbol = w.symbol AND p.date = w.date
	`, window-1)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("refresh addv window %d: %w", window, err)
	}
	return nil
}

// scanPriceBars scans multiple rows into a slice of PriceBar.
func scanPriceBars(rows pgx.Rows) ([]*domain.PriceBar, error) {
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
