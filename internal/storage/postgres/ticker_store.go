package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// TickerStore implements storage.TickerStore using PostgreSQL.
type TickerStore struct {
	pool *Pool
}

// NewTickerStore creates a new TickerStore.
func NewTickerStore(pool *Pool) *TickerStore {
	return &TickerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TickerStore = (*TickerStore)(nil)

// Upsert inserts a ticker or updates an existing one keyed by symbol.
// first_seen is preserved on update.
func (s *TickerStore) Upsert(ctx context.Context, t *domain.Ticker) error {
	query := `
		INSERT INTO tickers (
			symbol, name, exchange, asset_type, provider_symbol_alpaca,
			is_active, is_tracked, first_seen, last_seen, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			exchange = EXCLUDED.exchange,
			asset_type = EXCLUDED.asset_type,
			provider_symbol_alpaca = EXCLUDED.provider_symbol_alpaca,
			is_active = EXCLUDED.is_active,
			is_tracked = EXCLUDED.is_tracked,
			last_seen = EXCLUDED.last_seen,
			source = EXCLUDED.source
	`

	_, err := s.pool.Exec(ctx, query,
		t.Symbol,
		t.Name,
		t.Exchange,
		t.AssetType,
		t.ProviderSymbolAlpaca,
		t.IsActive,
		t.IsTracked,
		t.FirstSeen,
		t.LastSeen,
		t.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert ticker: %w", err)
	}
	return nil
}

// GetBySymbol retrieves a ticker by its canonical symbol.
func (s *TickerStore) GetBySymbol(ctx context.Context, symbol string) (*domain.Ticker, error) {
	query := `
		SELECT symbol, name, exchange, asset_type, provider_symbol_alpaca,
		       is_active, is_tracked, first_seen, last_seen, source
		FROM tickers
		WHERE symbol = $1
	`

	var t domain.Ticker
	err := s.pool.QueryRow(ctx, query, symbol).Scan(
		&t.Symbol,
		&t.Name,
		&t.Exchange,
		&t.AssetType,
		&t.ProviderSymbolAlpaca,
		&t.IsActive,
		&t.IsTracked,
		&t.FirstSeen,
		&t.LastSeen,
		&t.Source,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ticker by symbol: %w", err)
	}
	return &t, nil
}

// ListPage retrieves one page of active tickers matching the selector,
// ordered by symbol ASC.
func (s *TickerStore) ListPage(ctx context.Context, selector domain.UniverseSelector, symbols []string, limit, offset int) ([]*domain.Ticker, error) {
	query := `
		SELECT symbol, name, exchange, asset_type, provider_symbol_alpaca,
		       is_active, is_tracked, first_seen, last_seen, source
		FROM tickers
		WHERE is_active
	`
	args := []any{}

	if selector == domain.UniverseTracked {
		query += " AND is_tracked"
	}
	if len(symbols) > 0 {
		args = append(args, symbols)
		query += fmt.Sprintf(" AND symbol = ANY($%d)", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY symbol ASC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickers page: %w", err)
	}
	defer rows.Close()

	return scanTickers(rows)
}

// TouchLastSeen sets last_seen for the given symbols.
func (s *TickerStore) TouchLastSeen(ctx context.Context, symbols []string, seenAt time.Time) error {
	if len(symbols) == 0 {
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE tickers SET last_seen = $1 WHERE symbol = ANY($2)`,
		seenAt, symbols,
	)
	if err != nil {
		return fmt.Errorf("touch last_seen: %w", err)
	}
	return nil
}

// scanTickers scans multiple rows into a slice of Ticker.
func scanTickers(rows pgx.Rows) ([]*domain.Ticker, error) {
	var tickers []*domain.Ticker

	for rows.Next() {
		var t domain.Ticker

		err := rows.Scan(
			&t.Symbol,
			&t.Name,
			&t.Exchange,
			&t.AssetType,
			&t.ProviderSymbolAlpaca,
			&t.IsActive,
			&t.IsTracked,
			&t.FirstSeen,
			&t.LastSeen,
			&t.Source,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ticker row: %w", err)
		}

		tickers = append(tickers, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker rows: %w", err)
	}

	return tickers, nil
}
