package memory

import (
	"context"
	"testing"
	"time"

	"equity-movers-lab/internal/domain"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func fptr(f float64) *float64 { return &f }
func iptr(i int64) *int64     { return &i }

func testBar(symbol, date string, close float64, volume int64) *domain.PriceBar {
	return &domain.PriceBar{
		Symbol:       symbol,
		Name:         symbol,
		Date:         day(date),
		Close:        fptr(close),
		Volume:       iptr(volume),
		DollarVolume: fptr(close * float64(volume)),
	}
}

func TestPriceBarUpsertOverwrites(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	if err := store.UpsertBulk(ctx, []*domain.PriceBar{testBar("AAPL", "2026-08-24", 100, 1000)}); err != nil {
		t.Fatalf("UpsertBulk: %v", err)
	}
	// Same key, new values: full overwrite, not a merge.
	if err := store.UpsertBulk(ctx, []*domain.PriceBar{testBar("AAPL", "2026-08-24", 105, 1100)}); err != nil {
		t.Fatalf("UpsertBulk overwrite: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	bars, err := store.GetBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol: %v", err)
	}
	if *bars[0].Close != 105 {
		t.Errorf("close = %v, want 105", *bars[0].Close)
	}
}

func TestPriceBarTruncatesDateToDay(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	bar := testBar("AAPL", "2026-08-24", 100, 1000)
	bar.Date = time.Date(2026, 8, 24, 20, 30, 0, 0, time.FixedZone("EST", -5*3600))
	if err := store.UpsertBulk(ctx, []*domain.PriceBar{bar}); err != nil {
		t.Fatalf("UpsertBulk: %v", err)
	}

	bars, err := store.GetByDate(ctx, day("2026-08-25"))
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	// 20:30 EST is 01:30 UTC the next day.
	if len(bars) != 1 {
		t.Fatalf("bars on UTC day = %d, want 1", len(bars))
	}
	if !bars[0].Date.Equal(day("2026-08-25")) {
		t.Errorf("stored date = %v, want 2026-08-25 midnight UTC", bars[0].Date)
	}
}

func TestPriceBarLatestAndPrevDate(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	if _, ok, err := store.LatestDate(ctx); err != nil || ok {
		t.Errorf("LatestDate empty = ok=%v err=%v, want no date", ok, err)
	}

	err := store.UpsertBulk(ctx, []*domain.PriceBar{
		testBar("AAPL", "2026-08-22", 100, 1000),
		testBar("AAPL", "2026-08-24", 101, 1000),
		testBar("MSFT", "2026-08-25", 300, 500),
	})
	if err != nil {
		t.Fatalf("UpsertBulk: %v", err)
	}

	latest, ok, err := store.LatestDate(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestDate = ok=%v err=%v", ok, err)
	}
	if !latest.Equal(day("2026-08-25")) {
		t.Errorf("latest = %v, want 2026-08-25", latest)
	}

	prev, ok, err := store.PrevDate(ctx, latest)
	if err != nil || !ok {
		t.Fatalf("PrevDate = ok=%v err=%v", ok, err)
	}
	if !prev.Equal(day("2026-08-24")) {
		t.Errorf("prev = %v, want 2026-08-24", prev)
	}

	if _, ok, err := store.PrevDate(ctx, day("2026-08-22")); err != nil || ok {
		t.Errorf("PrevDate before earliest = ok=%v err=%v, want none", ok, err)
	}
}

func TestPriceBarGetByDateOrdersBySymbol(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	err := store.UpsertBulk(ctx, []*domain.PriceBar{
		testBar("MSFT", "2026-08-24", 300, 500),
		testBar("AAPL", "2026-08-24", 100, 1000),
	})
	if err != nil {
		t.Fatalf("UpsertBulk: %v", err)
	}

	bars, err := store.GetByDate(ctx, day("2026-08-24"))
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if len(bars) != 2 || bars[0].Symbol != "AAPL" || bars[1].Symbol != "MSFT" {
		t.Errorf("order = %v, want AAPL then MSFT", []string{bars[0].Symbol, bars[1].Symbol})
	}
}

func TestPriceBarRefreshADDV(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	// Dollar volumes 100, 200, 300 over three observed trading days with a
	// gap; the window counts rows, not calendar days.
	bars := []*domain.PriceBar{
		{Symbol: "AAPL", Date: day("2026-08-20"), Close: fptr(1), DollarVolume: fptr(100)},
		{Symbol: "AAPL", Date: day("2026-08-21"), Close: fptr(1), DollarVolume: fptr(200)},
		{Symbol: "AAPL", Date: day("2026-08-25"), Close: fptr(1), DollarVolume: fptr(300)},
	}
	if err := store.UpsertBulk(ctx, bars); err != nil {
		t.Fatalf("UpsertBulk: %v", err)
	}

	if err := store.RefreshADDV(ctx, 2); err != nil {
		t.Fatalf("RefreshADDV: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol: %v", err)
	}

	want := []float64{100, 150, 250}
	for i, w := range want {
		if got[i].ADDV20 == nil || *got[i].ADDV20 != w {
			t.Errorf("addv[%d] = %v, want %v", i, got[i].ADDV20, w)
		}
	}
}

func TestPriceBarRefreshADDVRejectsBadWindow(t *testing.T) {
	store := NewPriceBarStore()
	if err := store.RefreshADDV(context.Background(), 0); err == nil {
		t.Error("RefreshADDV(0) = nil, want error")
	}
}
