package universe

import (
	"context"
	"fmt"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/storage"
)

// DefaultPageSize is the row-retrieval cap assumed of the backing store.
// A single unbounded fetch is not guaranteed, so resolution pages and
// concatenates.
const DefaultPageSize = 1000

// Entry is one resolved universe member.
type Entry struct {
	Symbol         string // canonical symbol
	ProviderSymbol string // symbol used for provider lookups
	Name           string // display name, falls back to the symbol
}

// Resolver resolves a universe selector into the ordered set of canonical
// symbols and their provider aliases.
type Resolver struct {
	tickers  storage.TickerStore
	pageSize int
}

// NewResolver creates a resolver with the default page size.
func NewResolver(tickers storage.TickerStore) *Resolver {
	return &Resolver{tickers: tickers, pageSize: DefaultPageSize}
}

// WithPageSize overrides the page size. Intended for tests.
func (r *Resolver) WithPageSize(n int) *Resolver {
	if n > 0 {
		r.pageSize = n
	}
	return r
}

// Resolve returns every universe member matching the selector, ordered by
// symbol ascending. A non-empty symbols slice restricts the universe to
// those canonical symbols. Each call re-resolves from scratch; there is no
// resumable cursor. Returns storage.ErrUniverseEmpty when nothing matches.
func (r *Resolver) Resolve(ctx context.Context, selector domain.UniverseSelector, symbols []string) ([]Entry, error) {
	if !selector.Valid() {
		return nil, fmt.Errorf("%w: unknown universe selector %q", storage.ErrInvalidInput, selector)
	}

	var entries []Entry
	seen := make(map[string]struct{})

	for offset := 0; ; offset += r.pageSize {
		page, err := r.tickers.ListPage(ctx, selector, symbols, r.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list tickers page at offset %d: %w", offset, err)
		}

		for _, t := range page {
			if _, dup := seen[t.Symbol]; dup {
				continue
			}
			seen[t.Symbol] = struct{}{}

			name := t.Name
			if name == "" {
				name = t.Symbol
			}
			entries = append(entries, Entry{
				Symbol:         t.Symbol,
				ProviderSymbol: ProviderSymbol(t),
				Name:           name,
			})
		}

		if len(page) < r.pageSize {
			break
		}
	}

	if len(entries) == 0 {
		return nil, storage.ErrUniverseEmpty
	}
	return entries, nil
}
