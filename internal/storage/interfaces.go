package storage

import (
	"context"
	"time"

	"equity-movers-lab/internal/domain"
)

// TickerStore provides access to tickers storage.
type TickerStore interface {
	// Upsert inserts a ticker or updates an existing one keyed by symbol.
	// first_seen is preserved on update.
	Upsert(ctx context.Context, t *domain.Ticker) error

	// GetBySymbol retrieves a ticker by its canonical symbol.
	// Returns ErrNotFound if not exists.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Ticker, error)

	// ListPage retrieves one page of active tickers matching the selector,
	// ordered by symbol ASC. A non-empty symbols slice restricts the page to
	// those canonical symbols. The backing store caps a single retrieval, so
	// callers page with (limit, offset) and concatenate.
	ListPage(ctx context.Context, selector domain.UniverseSelector, symbols []string, limit, offset int) ([]*domain.Ticker, error)

	// TouchLastSeen sets last_seen for the given symbols.
	TouchLastSeen(ctx context.Context, symbols []string, seenAt time.Time) error
}

// PriceBarStore provides access to daily_prices storage.
// Bars are exclusively written by the Price Loader and read-only to the
// Movers Snapshot Engine.
type PriceBarStore interface {
	// UpsertBulk writes bars keyed by (symbol, date). An existing row for
	// the same key is fully overwritten: last-write-wins, no field merge.
	UpsertBulk(ctx context.Context, bars []*domain.PriceBar) error

	// GetByDate retrieves all bars for one calendar date, ordered by symbol ASC.
	GetByDate(ctx context.Context, date time.Time) ([]*domain.PriceBar, error)

	// GetBySymbol retrieves all bars for a symbol, ordered by date ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.PriceBar, error)

	// LatestDate returns the maximum date present across all bars.
	// ok is false when the store holds no bars.
	LatestDate(ctx context.Context) (date time.Time, ok bool, err error)

	// PrevDate returns the maximum date strictly earlier than before.
	// ok is false when no earlier trading day exists.
	PrevDate(ctx context.Context, before time.Time) (date time.Time, ok bool, err error)

	// Count returns the total number of stored bars.
	Count(ctx context.Context) (int64, error)

	// RefreshADDV recomputes the trailing average dollar-volume column over
	// the given window of observed trading days, per symbol.
	RefreshADDV(ctx context.Context, window int) error
}

// SnapshotStore provides access to mover_snapshots storage.
// Rows are exclusively written by the Movers Snapshot Engine.
type SnapshotStore interface {
	// ReplaceForDate atomically deletes any existing rows for asOf and
	// inserts the given set. Concurrent calls for the same asOf never leave
	// a partial or duplicated row set visible. Returns rows inserted.
	ReplaceForDate(ctx context.Context, asOf time.Time, rows []*domain.MoverSnapshotRow) (int, error)

	// GetByDate retrieves the snapshot for asOf, ordered by
	// abs_change_1d DESC, symbol ASC.
	GetByDate(ctx context.Context, asOf time.Time) ([]*domain.MoverSnapshotRow, error)

	// GetLatest retrieves the snapshot for the most recent as_of, ordered by
	// abs_change_1d DESC, symbol ASC. Empty result when no snapshot exists.
	GetLatest(ctx context.Context) ([]*domain.MoverSnapshotRow, error)

	// LatestAsOf returns the most recent as_of date with a stored snapshot.
	// ok is false when no snapshot exists.
	LatestAsOf(ctx context.Context) (asOf time.Time, ok bool, err error)
}
