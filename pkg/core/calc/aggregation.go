package calc

import (
	"sort"
	"strings"

	"financial_insights/pkg/models"

	"github.com/shopspring/decimal"
)

// Aggregate rolls records up into a Summary.
// Amounts are summed as decimals and converted once at the end.
// It accepts any input, including nil, and never fails.
func Aggregate(records []models.FinancialRecord) Summary {
	var (
		revenue, expenses, assets, liabilities, equity decimal.Decimal
		cash, inventory, unrecognized                  decimal.Decimal
	)

	s := Summary{RecordCount: len(records)}
	periods := make(map[string]struct{})

	for _, r := range records {
		if r.Period != "" {
			periods[r.Period] = struct{}{}
		}

		switch r.Category {
		case models.CategoryRevenue:
			revenue = revenue.Add(r.Amount)
		case models.CategoryExpense:
			expenses = expenses.Add(r.Amount)
		case models.CategoryAsset:
			assets = assets.Add(r.Amount)
			if isCash(r) {
				cash = cash.Add(r.Amount)
			}
			if strings.EqualFold(strings.TrimSpace(r.SubCategory), "inventory") {
				inventory = inventory.Add(r.Amount)
			}
		case models.CategoryLiability:
			liabilities = liabilities.Add(r.Amount)
		case models.CategoryEquity:
			equity = equity.Add(r.Amount)
		default:
			s.UnrecognizedCount++
			unrecognized = unrecognized.Add(r.Amount)
		}
	}

	s.Revenue = revenue.InexactFloat64()
	s.Expenses = expenses.InexactFloat64()
	s.NetIncome = revenue.Sub(expenses).InexactFloat64()
	s.Assets = assets.InexactFloat64()
	s.Liabilities = liabilities.InexactFloat64()
	s.Equity = equity.InexactFloat64()
	s.Cash = cash.InexactFloat64()
	s.Inventory = inventory.InexactFloat64()
	s.UnrecognizedTotal = unrecognized.InexactFloat64()
	s.PeriodCount = len(periods)

	return s
}

// AggregateByPeriod returns one Summary per period token, ordered by token.
// Records without a period are grouped under "".
func AggregateByPeriod(records []models.FinancialRecord) []PeriodSummary {
	groups := make(map[string][]models.FinancialRecord)
	for _, r := range records {
		groups[r.Period] = append(groups[r.Period], r)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]PeriodSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, PeriodSummary{Period: k, Summary: Aggregate(groups[k])})
	}
	return out
}

func isCash(r models.FinancialRecord) bool {
	return strings.Contains(strings.ToLower(r.SubCategory), "cash") ||
		strings.Contains(strings.ToLower(r.AccountName), "cash")
}
