// Package calc provides the deterministic number crunching behind every insight:
// summaries, guarded ratios, scores and benchmark comparisons. Nothing in here does I/O
// and nothing in here returns an error.
package calc

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the aggregated view of a document's records.
type Summary struct {
	Revenue     float64 `json:"revenue"`
	Expenses    float64 `json:"expenses"`
	NetIncome   float64 `json:"net_income"` // Revenue - Expenses, may be negative
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Equity      float64 `json:"equity"`

	// Bookkeeping used by the cash-flow and ratio helpers.
	Cash        float64 `json:"cash"`
	Inventory   float64 `json:"inventory"`
	RecordCount int     `json:"record_count"`
	PeriodCount int     `json:"period_count"`

	// Records whose category is not one of the five recognized literals.
	// They never reach the buckets above.
	UnrecognizedCount int     `json:"unrecognized_count"`
	UnrecognizedTotal float64 `json:"unrecognized_total"`
}

// PeriodSummary is a Summary restricted to one period token.
type PeriodSummary struct {
	Period  string  `json:"period"`
	Summary Summary `json:"summary"`
}

// =============================================================================
// RATIOS
// =============================================================================

// Ratio names. A RatioSet only ever holds keys from this list.
const (
	ProfitMargin    = "ProfitMargin"
	CurrentRatio    = "CurrentRatio"
	DebtToEquity    = "DebtToEquity"
	GrossMargin     = "GrossMargin"
	OperatingMargin = "OperatingMargin"
	NetMargin       = "NetMargin"
	QuickRatio      = "QuickRatio"
	ReturnOnAssets  = "ReturnOnAssets"
	ReturnOnEquity  = "ReturnOnEquity"
	ExpenseRatio    = "ExpenseRatio"
	DebtRatio       = "DebtRatio"
)

// RatioSet maps ratio names to values. A ratio is absent when its denominator was not valid.
type RatioSet map[string]float64

// Get returns the named ratio, or 0 when it is absent.
func (r RatioSet) Get(name string) float64 {
	return r[name]
}

// Has reports whether the named ratio was computed.
func (r RatioSet) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Clone returns a copy that can be handed to callers.
func (r RatioSet) Clone() map[string]float64 {
	out := make(map[string]float64, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
