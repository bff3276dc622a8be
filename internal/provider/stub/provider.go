// Package stub provides a configurable in-memory BarProvider for tests.
package stub

import (
	"context"
	"sync"
	"time"

	"equity-movers-lab/internal/domain"
	"equity-movers-lab/internal/provider"
)

// Provider serves pre-seeded bars keyed by provider symbol and can be told
// to fail specific symbols.
type Provider struct {
	mu       sync.Mutex
	bars     map[string][]provider.Bar
	failures map[string]error
	calls    []string
}

// New creates an empty stub provider.
func New() *Provider {
	return &Provider{
		bars:     make(map[string][]provider.Bar),
		failures: make(map[string]error),
	}
}

// Compile-time interface check.
var _ provider.BarProvider = (*Provider)(nil)

// SetBars seeds the bars returned for providerSymbol.
func (p *Provider) SetBars(providerSymbol string, bars ...provider.Bar) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars[providerSymbol] = append([]provider.Bar(nil), bars...)
}

// FailSymbol makes FetchBars return err for providerSymbol.
func (p *Provider) FailSymbol(providerSymbol string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[providerSymbol] = err
}

// Calls returns the provider symbols fetched so far, in call order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// FetchBars returns the seeded bars filtered to [start, end].
func (p *Provider) FetchBars(_ context.Context, providerSymbol string, start, end time.Time) ([]provider.Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, providerSymbol)

	if err := p.failures[providerSymbol]; err != nil {
		return nil, err
	}

	startDay := domain.Day(start)
	endDay := domain.Day(end)

	var result []provider.Bar
	for _, b := range p.bars[providerSymbol] {
		day := domain.Day(b.Date)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}
