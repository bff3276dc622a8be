package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceBar // keyed by (symbol, date)
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]*domain.PriceBar),
	}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

// barKey generates a unique key for a price bar.
func barKey(symbol string, date time.Time) string {
	return fmt.Sprintf("%s|%s", symbol, domain.Day(date).Format("2006-01-02"))
}

// UpsertBulk writes bars keyed by (symbol, date). An existing row for the
// same key is fully overwritten.
func (s *PriceBarStore) UpsertBulk(_ context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		barCopy := *b
		barCopy.Date = domain.Day(b.Date)
		s.data[barKey(b.Symbol, b.Date)] = &barCopy
	}
	return nil
}

// GetByDate retrieves all bars for one calendar date, ordered by symbol ASC.
func (s *PriceBarStore) GetByDate(_ context.Context, date time.Time) ([]*domain.PriceBar, error) {
	day := domain.Day(date)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceBar
	for _, b := range s.data {
		if b.Date.Equal(day) {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result, nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by date ASC.
func (s *PriceBarStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceBar
	for _, b := range s.data {
		if b.Symbol == symbol {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// LatestDate returns the maximum date present across all bars.
func (s *PriceBarStore) LatestDate(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max time.Time
	found := false
	for _, b := range s.data {
		if !found || b.Date.After(max) {
			max = b.Date
			found = true
		}
	}
	return max, found, nil
}

// PrevDate returns the maximum date strictly earlier than before.
func (s *PriceBarStore) PrevDate(_ context.Context, before time.Time) (time.Time, bool, error) {
	day := domain.Day(before)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var max time.Time
	found := false
	for _, b := range s.data {
		if b.Date.Before(day) && (!found || b.Date.After(max)) {
			max = b.Date
			found = true
		}
	}
	return max, found, nil
}

// Count returns the total number of stored bars.
func (s *PriceBarStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data)), nil
}

// RefreshADDV recomputes the trailing average dollar-volume column over the
// given window of observed trading days, per symbol. Bars with no dollar
// volume are skipped in the average.
func (s *PriceBarStore) RefreshADDV(_ context.Context, window int) error {
	if window <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bySymbol := make(map[string][]*domain.PriceBar)
	for _, b := range s.data {
		bySymbol[b.Symbol] = append(bySymbol[b.Symbol], b)
	}

	for _, series := range bySymbol {
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})
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

	return nil
}
