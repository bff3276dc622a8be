package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"equity-movers-lab/internal/domain"
)

// AlpacaProvider fetches daily bars from the Alpaca Market Data API.
type AlpacaProvider struct {
	client *marketdata.Client
}

// NewAlpacaProvider creates a provider from API credentials.
func NewAlpacaProvider(apiKey, apiSecret string) *AlpacaProvider {
	return &AlpacaProvider{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
	}
}

// Compile-time interface check.
var _ BarProvider = (*AlpacaProvider)(nil)

// FetchBars returns raw daily bars for [start, end] inclusive. The Alpaca
// client manages its own request deadlines; ctx is honored only between
// calls.
func (p *AlpacaProvider) FetchBars(ctx context.Context, providerSymbol string, start, end time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startDay := domain.Day(start)
	// The provider end bound is a timestamp; extend it to cover the whole
	// end date.
	endBound := domain.Day(end).Add(24*time.Hour - time.Second)

	raw, err := p.client.GetBars(providerSymbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Raw,
		Start:      startDay,
		End:        endBound,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars for %s: %w", providerSymbol, err)
	}

	bars := make([]Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, Bar{
			Date:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return bars, nil
}
