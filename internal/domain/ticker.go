package domain

import "time"

// UniverseSelector picks which tickers a loader run targets.
type UniverseSelector string

const (
	// UniverseAll selects every active ticker.
	UniverseAll UniverseSelector = "all"

	// UniverseTracked selects active tickers flagged is_tracked.
	UniverseTracked UniverseSelector = "tracked"
)

// Valid reports whether the selector is one of the known values.
func (s UniverseSelector) Valid() bool {
	return s == UniverseAll || s == UniverseTracked
}

// Ticker represents one listed instrument.
// Corresponds to the tickers table in PostgreSQL.
type Ticker struct {
	Symbol               string    // PRIMARY KEY, canonical symbol, immutable once created
	Name                 string    // display name, falls back to symbol when unknown
	Exchange             *string   // listing exchange (nullable)
	AssetType            *string   // equity, etf, adr (nullable)
	ProviderSymbolAlpaca *string   // provider alias; nil means the fallback transform applies
	IsActive             bool      // soft-deactivation flag, never hard-deleted
	IsTracked            bool      // curated subset for the tracked universe
	FirstSeen            time.Time // set on first observation
	LastSeen             time.Time // touched on every successful load of this symbol
	Source               *string   // where the ticker was first observed (nullable)
}
