package calc

import (
	"sort"

	"financial_insights/pkg/models"

	"github.com/shopspring/decimal"
)

// ShareLine is one line of a common-size breakdown.
type ShareLine struct {
	Category        models.Category `json:"category"`
	Label           string          `json:"label"` // sub-category, or account name when unset
	Amount          float64         `json:"amount"`
	ShareOfCategory float64         `json:"share_of_category"` // percent
	ShareOfRevenue  float64         `json:"share_of_revenue"`  // percent, 0 without revenue
	HasRevenueShare bool            `json:"has_revenue_share"`
}

// CommonSize expresses every line of the recognized categories as a percentage of its
// category total and, for revenue and expense lines, of total revenue. Lines are grouped
// by sub-category (account name when no sub-category is set) and ordered by category,
// then by descending amount.
func CommonSize(records []models.FinancialRecord, s Summary) []ShareLine {
	type key struct {
		category models.Category
		label    string
	}
	sums := make(map[key]decimal.Decimal)
	totals := make(map[models.Category]decimal.Decimal)

	for _, r := range records {
		if !r.Category.Recognized() {
			continue
		}
		label := r.SubCategory
		if label == "" {
			label = r.AccountName
		}
		k := key{r.Category, label}
		sums[k] = sums[k].Add(r.Amount)
		totals[r.Category] = totals[r.Category].Add(r.Amount)
	}

	out := make([]ShareLine, 0, len(sums))
	for k, amount := range sums {
		v := amount.InexactFloat64()
		line := ShareLine{
			Category:        k.category,
			Label:           k.label,
			Amount:          Round(v, 2),
			ShareOfCategory: Round(safeDiv(v, totals[k.category].InexactFloat64())*100, 2),
		}
		if s.Revenue != 0 && (k.category == models.CategoryRevenue || k.category == models.CategoryExpense) {
			line.ShareOfRevenue = Round(v/s.Revenue*100, 2)
			line.HasRevenueShare = true
		}
		out = append(out, line)
	}

	order := map[models.Category]int{
		models.CategoryRevenue:   0,
		models.CategoryExpense:   1,
		models.CategoryAsset:     2,
		models.CategoryLiability: 3,
		models.CategoryEquity:    4,
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return order[out[i].Category] < order[out[j].Category]
		}
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Label < out[j].Label
	})
	return out
}
