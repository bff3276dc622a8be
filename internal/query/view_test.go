package query

import (
	"context"
	"testing"
	"time"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage/memory"
)

func TestLatestSnapshotEmpty(t *testing.T) {
	v := NewView(memory.NewSnapshotStore())

	_, _, ok, err := v.LatestSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if ok {
		t.Error("ok = true, want false with no snapshots")
	}
}

func TestLatestSnapshotPicksNewestDate(t *testing.T) {
	snaps := memory.NewSnapshotStore()
	ctx := context.Background()

	older := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{older, newer} {
		_, err := snaps.ReplaceForDate(ctx, d, []*domain.MoverSnapshotRow{{
			AsOf: d, Symbol: "AAPL", PctChange1D: 25, AbsChange1D: 25,
			Direction: domain.DirectionUp, RankOverall: 1,
		}})
		if err != nil {
			t.Fatalf("ReplaceForDate %s: %v", d.Format("2006-01-02"), err)
		}
	}

	view := NewView(snaps)
	rows, asOf, ok, err := view.LatestSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestSnapshot = ok=%v err=%v", ok, err)
	}
	if !asOf.Equal(newer) {
		t.Errorf("asOf = %v, want %v", asOf, newer)
	}
	if len(rows) != 1 || rows[0].Symbol != "AAPL" {
		t.Errorf("rows = %v, want single AAPL row", rows)
	}

	forDate, err := view.SnapshotFor(ctx, older)
	if err != nil {
		t.Fatalf("SnapshotFor: %v", err)
	}
	if len(forDate) != 1 {
		t.Errorf("rows for %v = %d, want 1", older, len(forDate))
	}
}
