package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
// The whole row set for one as_of date lives under a single map entry, so a
// replace is atomic under the store lock.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.MoverSnapshotRow // keyed by as_of date
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.MoverSnapshotRow),
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

func dateKey(asOf time.Time) string {
	return domain.Day(asOf).Format("2006-01-02")
}

// ReplaceForDate atomically replaces the row set for asOf.
func (s *SnapshotStore) ReplaceForDate(_ context.Context, asOf time.Time, rows []*domain.MoverSnapshotRow) (int, error) {
	day := domain.Day(asOf)

	replacement := make([]*domain.MoverSnapshotRow, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.Symbol == "" {
			return 0, storage.ErrInvalidInput
		}
		if _, dup := seen[r.Symbol]; dup {
			return 0, storage.ErrInvalidInput
		}
		seen[r.Symbol] = struct{}{}
		rowCopy := *r
		rowCopy.AsOf = day
		replacement = append(replacement, &rowCopy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(replacement) == 0 {
		delete(s.data, dateKey(day))
		return 0, nil
	}
	s.data[dateKey(day)] = replacement
	return len(replacement), nil
}

// GetByDate retrieves the snapshot for asOf, ordered by
// abs_change_1d DESC, symbol ASC.
func (s *SnapshotStore) GetByDate(_ context.Context, asOf time.Time) ([]*domain.MoverSnapshotRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copySorted(s.data[dateKey(asOf)]), nil
}

// GetLatest retrieves the snapshot for the most recent as_of.
func (s *SnapshotStore) GetLatest(_ context.Context) ([]*domain.MoverSnapshotRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest string
	for key := range s.data {
		if key > latest {
			latest = key
		}
	}
	if latest == "" {
		return nil, nil
	}
	return copySorted(s.data[latest]), nil
}

// LatestAsOf returns the most recent as_of date with a stored snapshot.
func (s *SnapshotStore) LatestAsOf(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest string
	for key := range s.data {
		if key > latest {
			latest = key
		}
	}
	if latest == "" {
		return time.Time{}, false, nil
	}
	asOf, err := time.Parse("2006-01-02", latest)
	if err != nil {
		return time.Time{}, false, err
	}
	return asOf, true, nil
}

// copySorted returns value copies ordered by abs_change_1d DESC, symbol ASC.
func copySorted(rows []*domain.MoverSnapshotRow) []*domain.MoverSnapshotRow {
	result := make([]*domain.MoverSnapshotRow, 0, len(rows))
	for _, r := range rows {
		rowCopy := *r
		result = append(result, &rowCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].AbsChange1D != result[j].AbsChange1D {
			return result[i].AbsChange1D > result[j].AbsChange1D
		}
		return result[i].Symbol < result[j].Symbol
	})
	return result
}
