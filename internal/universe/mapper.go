package universe

import (
	"errors"
	"strings"

	"equity-movers-lab/internal/domain"
)

// ErrSymbolMappingAmbiguous is reserved for provider alias conflicts. The
// fallback transform is total, so this is never returned today.
var ErrSymbolMappingAmbiguous = errors.New("symbol mapping ambiguous")

// ProviderSymbol resolves the symbol used for provider lookups: the stored
// alias verbatim when present, otherwise the fallback transform.
func ProviderSymbol(t *domain.Ticker) string {
	if t.ProviderSymbolAlpaca != nil && *t.ProviderSymbolAlpaca != "" {
		return *t.ProviderSymbolAlpaca
	}
	return MapSymbol(t.Symbol)
}

// MapSymbol applies the deterministic fallback transform: every literal dot
// becomes a dash. Covers share-class tickers (BRK.B -> BRK-B). Pure and
// total; a result that matches no real provider symbol surfaces later as a
// per-symbol fetch error.
func MapSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "-")
}
