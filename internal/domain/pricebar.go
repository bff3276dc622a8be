package domain

import "time"

// Day truncates t to its UTC calendar date. Price bars and snapshots are
// keyed by calendar date, never by timestamp.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PriceBar is one daily OHLCV bar for a symbol.
// Corresponds to the daily_prices table; at most one bar per (symbol, date).
type PriceBar struct {
	Symbol       string    // canonical symbol
	Name         string    // copied from the ticker at load time
	Date         time.Time // UTC calendar date (midnight)
	Open         *float64
	High         *float64
	Low          *float64
	Close        *float64
	AdjClose     *float64 // adjusted close when the provider supplies one
	Volume       *int64
	DollarVolume *float64 // derived: close * volume
	ADDV20       *float64 // trailing 20-day average dollar volume, filled by RefreshADDV
}
