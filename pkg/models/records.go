package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the ledger bucket a record rolls up into.
// Only the five literals below are aggregated; matching is exact and case-sensitive.
type Category string

const (
	CategoryRevenue   Category = "Revenue"
	CategoryExpense   Category = "Expense"
	CategoryAsset     Category = "Asset"
	CategoryLiability Category = "Liability"
	CategoryEquity    Category = "Equity"
)

// Recognized reports whether c is one of the five aggregated categories.
func (c Category) Recognized() bool {
	switch c {
	case CategoryRevenue, CategoryExpense, CategoryAsset, CategoryLiability, CategoryEquity:
		return true
	}
	return false
}

// FinancialRecord is one categorized line extracted from an uploaded document.
type FinancialRecord struct {
	AccountName  string          `json:"account_name"`
	Category     Category        `json:"category"`
	SubCategory  string          `json:"sub_category"`
	Period       string          `json:"period"` // opaque token, e.g. "2024-01"
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	RecordedDate time.Time       `json:"recorded_date"`
}

// BenchmarkEntry is an industry reference value for one metric.
type BenchmarkEntry struct {
	MetricName      string  `json:"metric_name"`
	IndustryAverage float64 `json:"industry_average"`
	IndustryMedian  float64 `json:"industry_median"`
	Percentile25    float64 `json:"percentile_25"`
	Percentile75    float64 `json:"percentile_75"`
	Description     string  `json:"description"`
}
