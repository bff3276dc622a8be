package domain

// SymbolError records a per-symbol failure during a load. Failures are
// surfaced as data in the report, not raised, so one bad symbol never
// blanks a run.
type SymbolError struct {
	Symbol string // canonical symbol
	Err    string // what failed: fetch, normalization, or mirror write
}

// LoadReport summarizes one Price Loader run. A run always returns a report
// showing counts attempted vs. written plus the list of failed symbols.
type LoadReport struct {
	SymbolsConsidered int           // universe size after resolution
	BarsFetched       int           // normalized bars produced from provider responses
	BarsWritten       int           // bars upserted (zero on a dry run)
	Errors            []SymbolError // per-symbol failures, sorted by symbol
}
