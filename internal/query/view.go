// Package query provides read-only views over stored snapshots.
package query

import (
	"context"
	"fmt"
	"time"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// View serves mover snapshot reads. Consumers only ever see the complete
// row set the engine last stored; ordering comes from the store.
type View struct {
	snapshots storage.SnapshotStore
}

// NewView creates a snapshot view.
func NewView(snapshots storage.SnapshotStore) *View {
	return &View{snapshots: snapshots}
}

// LatestSnapshot returns the most recent snapshot and its as_of date.
// ok is false when no snapshot has been stored yet.
func (v *View) LatestSnapshot(ctx context.Context) (rows []*domain.MoverSnapshotRow, asOf time.Time, ok bool, err error) {
	asOf, ok, err = v.snapshots.LatestAsOf(ctx)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("latest snapshot date: %w", err)
	}
	if !ok {
		return nil, time.Time{}, false, nil
	}

	rows, err = v.snapshots.GetByDate(ctx, asOf)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("snapshot for %s: %w", asOf.Format("2006-01-02"), err)
	}
	return rows, asOf, true, nil
}

// SnapshotFor returns the snapshot stored for asOf. Empty when no snapshot
// exists for that date.
func (v *View) SnapshotFor(ctx context.Context, asOf time.Time) ([]*domain.MoverSnapshotRow, error) {
	rows, err := v.snapshots.GetByDate(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("snapshot for %s: %w", domain.Day(asOf).Format("2006-01-02"), err)
	}
	return rows, nil
}
