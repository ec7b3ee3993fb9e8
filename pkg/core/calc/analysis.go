package calc

import "math"

// =============================================================================
// RATIO ENGINE
// Every ratio is guarded by its denominator. A ratio whose denominator is not valid
// is left out of the set; consumers read it through RatioSet.Get and see 0.
// =============================================================================

// Ratios derives the ratio set from a summary.
func Ratios(s Summary) RatioSet {
	r := make(RatioSet)

	if s.Revenue > 0 {
		r[ProfitMargin] = s.NetIncome / s.Revenue * 100
		r[OperatingMargin] = (s.Revenue - s.Expenses) / s.Revenue * 100
		r[NetMargin] = s.NetIncome / s.Revenue * 100
		r[ExpenseRatio] = s.Expenses / s.Revenue * 100
		r[GrossMargin] = (s.Revenue - s.Expenses) / s.Revenue * 100
	} else {
		r[GrossMargin] = 0
	}

	if s.Liabilities > 0 && s.Assets > 0 {
		r[CurrentRatio] = s.Assets / s.Liabilities
		r[QuickRatio] = (s.Assets - s.Inventory) / s.Liabilities
	}

	if s.Equity > 0 && s.Liabilities > 0 {
		r[DebtToEquity] = s.Liabilities / s.Equity
	}

	if s.Assets > 0 {
		r[ReturnOnAssets] = s.NetIncome / s.Assets * 100
		r[DebtRatio] = s.Liabilities / s.Assets
	}

	if s.Equity > 0 {
		r[ReturnOnEquity] = s.NetIncome / s.Equity * 100
	}

	return r
}

// MetricValue resolves a benchmark metric name against the summary and ratios.
// Unknown names resolve to 0.
func MetricValue(name string, s Summary, r RatioSet) float64 {
	switch name {
	case "Revenue", "TotalRevenue":
		return s.Revenue
	case "Expenses", "TotalExpenses":
		return s.Expenses
	case "NetIncome":
		return s.NetIncome
	case "Assets", "TotalAssets":
		return s.Assets
	case "Liabilities", "TotalLiabilities":
		return s.Liabilities
	case "Equity", "TotalEquity":
		return s.Equity
	}
	return r.Get(name)
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// GrowthRate returns the relative change between two values, 0 when prior is 0.
func GrowthRate(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / math.Abs(prior)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
