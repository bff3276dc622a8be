// Package provider defines the external price-data source contract.
// A single provider is assumed authoritative per load.
package provider

import (
	"context"
	"time"
)

// Bar is one raw daily OHLCV bar as returned by a provider, before
// normalization to the canonical schema.
type Bar struct {
	Date     time.Time // bar timestamp; normalized to a UTC calendar date downstream
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose *float64 // adjusted close when the provider supplies one
	Volume   int64
}

// BarProvider fetches daily bars from an external price-data provider.
type BarProvider interface {
	// FetchBars returns daily bars for providerSymbol within [start, end],
	// both inclusive. An unknown symbol may yield an error or an empty
	// result depending on the provider; both are handled per symbol.
	FetchBars(ctx context.Context, providerSymbol string, start, end time.Time) ([]Bar, error)
}
