package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// TickerStore is an in-memory implementation of storage.TickerStore.
type TickerStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Ticker // keyed by symbol
}

// NewTickerStore creates a new in-memory ticker store.
func NewTickerStore() *TickerStore {
	return &TickerStore{
		data: make(map[string]*domain.Ticker),
	}
}

// Compile-time interface check.
var _ storage.TickerStore = (*TickerStore)(nil)

// Upsert inserts a ticker or updates an existing one keyed by symbol.
// first_seen is preserved on update.
func (s *TickerStore) Upsert(_ context.Context, t *domain.Ticker) error {
	if t == nil || t.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickerCopy := *t
	if existing, ok := s.data[t.Symbol]; ok {
		tickerCopy.FirstSeen = existing.FirstSeen
	}
	s.data[t.Symbol] = &tickerCopy
	return nil
}

// GetBySymbol retrieves a ticker by its canonical symbol.
func (s *TickerStore) GetBySymbol(_ context.Context, symbol string) (*domain.Ticker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[symbol]
	if !ok {
		return nil, storage.ErrNotFound
	}
	tickerCopy := *t
	return &tickerCopy, nil
}

// ListPage retrieves one page of active tickers matching the selector,
// ordered by symbol ASC.
func (s *TickerStore) ListPage(_ context.Context, selector domain.UniverseSelector, symbols []string, limit, offset int) ([]*domain.Ticker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[string]struct{}
	if len(symbols) > 0 {
		allowed = make(map[string]struct{}, len(symbols))
		for _, sym := range symbols {
			allowed[sym] = struct{}{}
		}
	}

	var matched []*domain.Ticker
	for _, t := range s.data {
		if !t.IsActive {
			continue
		}
		if selector == domain.UniverseTracked && !t.IsTracked {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[t.Symbol]; !ok {
				continue
			}
		}
		tickerCopy := *t
		matched = append(matched, &tickerCopy)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Symbol < matched[j].Symbol
	})

	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// TouchLastSeen sets last_seen for the given symbols. Unknown symbols are
// ignored, matching the UPDATE semantics of the SQL store.
func (s *TickerStore) TouchLastSeen(_ context.Context, symbols []string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sym := range symbols {
		if t, ok := s.data[sym]; ok {
			t.LastSeen = seenAt
		}
	}
	return nil
}
