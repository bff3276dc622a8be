package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"equity-movers-lab/internal/domain"
)

func chDay(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func chBar(symbol, date string, close float64, volume int64) *domain.PriceBar {
	dollarVolume := close * float64(volume)
	return &domain.PriceBar{
		Symbol:       symbol,
		Name:         symbol,
		Date:         chDay(date),
		Open:         ptr(close - 1),
		High:         ptr(close + 1),
		Low:          ptr(close - 2),
		Close:        ptr(close),
		Volume:       ptr(volume),
		DollarVolume: ptr(dollarVolume),
	}
}

func TestApplyTrailingADDVSkipsMissingDollarVolume(t *testing.T) {
	series := []*domain.PriceBar{
		{Symbol: "AAPL", Date: chDay("2026-08-20"), DollarVolume: ptr(100.0)},
		{Symbol: "AAPL", Date: chDay("2026-08-21")},
		{Symbol: "AAPL", Date: chDay("2026-08-22"), DollarVolume: ptr(300.0)},
	}

	applyTrailingADDV(series, 3)

	require.Equal(t, 100.0, *series[0].ADDV20)
	// The nil row still gets an average over the rows that have a value.
	require.Equal(t, 100.0, *series[1].ADDV20)
	require.Equal(t, 200.0, *series[2].ADDV20)
}

func TestPriceBarStoreRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.UpsertBulk(ctx, []*domain.PriceBar{
		chBar("AAPL", "2026-08-24", 100, 1000),
		chBar("MSFT", "2026-08-24", 300, 500),
		chBar("AAPL", "2026-08-25", 104, 1200),
	}))

	bars, err := store.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.True(t, bars[0].Date.Equal(chDay("2026-08-24")))
	require.Equal(t, 100.0, *bars[0].Close)
	require.Equal(t, 100000.0, *bars[0].DollarVolume)

	byDate, err := store.GetByDate(ctx, chDay("2026-08-24"))
	require.NoError(t, err)
	require.Len(t, byDate, 2)
	require.Equal(t, "AAPL", byDate[0].Symbol)
	require.Equal(t, "MSFT", byDate[1].Symbol)
}

func TestPriceBarStoreReplacingUpsert(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.UpsertBulk(ctx, []*domain.PriceBar{chBar("AAPL", "2026-08-24", 100, 1000)}))
	// ReplacingMergeTree collapses same-version rows at merge time; the
	// DateTime version has second precision, so keep the writes apart.
	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, store.UpsertBulk(ctx, []*domain.PriceBar{chBar("AAPL", "2026-08-24", 105, 1100)}))

	bars, err := store.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 1, "FINAL read must collapse versions")
	require.Equal(t, 105.0, *bars[0].Close)
}

func TestPriceBarStoreDates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceBarStore(conn)
	ctx := context.Background()

	_, ok, err := store.LatestDate(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.UpsertBulk(ctx, []*domain.PriceBar{
		chBar("AAPL", "2026-08-22", 100, 1000),
		chBar("AAPL", "2026-08-25", 101, 1000),
	}))

	latest, ok, err := store.LatestDate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, latest.Equal(chDay("2026-08-25")))

	prev, ok, err := store.PrevDate(ctx, latest)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, prev.Equal(chDay("2026-08-22")))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestPriceBarStoreRefreshADDV(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceBarStore(conn)
	ctx := context.Background()

	bars := []*domain.PriceBar{
		{Symbol: "AAPL", Date: chDay("2026-08-20"), Close: ptr(1.0), DollarVolume: ptr(100.0)},
		{Symbol: "AAPL", Date: chDay("2026-08-21"), Close: ptr(1.0), DollarVolume: ptr(200.0)},
		{Symbol: "AAPL", Date: chDay("2026-08-25"), Close: ptr(1.0), DollarVolume: ptr(300.0)},
	}
	require.NoError(t, store.UpsertBulk(ctx, bars))
	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, store.RefreshADDV(ctx, 2))

	got, err := store.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, 100.0, *got[0].ADDV20)
	require.Equal(t, 150.0, *got[1].ADDV20)
	require.Equal(t, 250.0, *got[2].ADDV20)
}
