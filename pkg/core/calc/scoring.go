package calc

// =============================================================================
// SCORING
// Scores and labels depend on numbers only, never on generated text.
// The thresholds are also embedded in prompts, so they must stay in sync with
// what the response parser looks for.
// =============================================================================

// Health ratings.
const (
	RatingGood = "Good"
	RatingFair = "Fair"
	RatingPoor = "Poor"
)

// Risk levels.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

// HealthScore awards points on top of a base of 50 and clamps to [0,100].
func HealthScore(s Summary, r RatioSet) int {
	score := 50
	if s.NetIncome > 0 {
		score += 15
	}
	if r.Get(ProfitMargin) > 10 {
		score += 15
	}
	if r.Get(CurrentRatio) > 1.5 {
		score += 15
	}
	if s.Assets > s.Liabilities {
		score += 15
	}
	// Absent ratios read as 0: a document without revenue still earns these points.
	if r.Get(ExpenseRatio) < 80 {
		score += 20
	}
	return clamp(score, 0, 100)
}

// HealthRating labels a profit margin.
func HealthRating(profitMargin float64) string {
	switch {
	case profitMargin > 15:
		return RatingGood
	case profitMargin > 5:
		return RatingFair
	default:
		return RatingPoor
	}
}

// RiskLevel buckets the company. Absent ratios read as 0, so a document without
// liabilities lands in Medium through the current-ratio rule.
func RiskLevel(s Summary, r RatioSet) string {
	switch {
	case s.NetIncome < 0 || r.Get(DebtToEquity) > 2:
		return RiskHigh
	case r.Get(CurrentRatio) < 1 || r.Get(ExpenseRatio) > 80:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskScore awards risk points on top of a base of 20 and clamps to [0,100].
// It applies the same absent-as-0 reading as RiskLevel.
func RiskScore(s Summary, r RatioSet) int {
	score := 20
	if s.NetIncome < 0 {
		score += 30
	}
	if r.Get(DebtToEquity) > 2 {
		score += 20
	}
	if r.Get(CurrentRatio) < 1 {
		score += 15
	}
	if r.Get(ExpenseRatio) > 80 {
		score += 15
	}
	if s.Liabilities > s.Assets {
		score += 10
	}
	return clamp(score, 0, 100)
}

// InvestmentScore blends health with the inverse of risk.
func InvestmentScore(s Summary, r RatioSet) int {
	return clamp((HealthScore(s, r)+100-RiskScore(s, r))/2, 0, 100)
}

// =============================================================================
// CASH FLOW
// =============================================================================

// CashFlowFigures are the numbers behind a cash-flow optimization.
type CashFlowFigures struct {
	CurrentCashPosition float64
	MonthlyBurnRate     float64
	RunwayMonths        float64
}

// CashFlow derives cash position, burn rate and runway from a summary.
// Each period token counts as one month.
func CashFlow(s Summary) CashFlowFigures {
	months := s.PeriodCount
	if months < 1 {
		months = 1
	}

	f := CashFlowFigures{
		CurrentCashPosition: s.Cash,
		MonthlyBurnRate:     s.Expenses / float64(months),
	}
	if f.CurrentCashPosition == 0 {
		f.CurrentCashPosition = s.Assets - s.Liabilities
	}
	if f.CurrentCashPosition > 0 && f.MonthlyBurnRate > 0 {
		f.RunwayMonths = Round(f.CurrentCashPosition/f.MonthlyBurnRate, 1)
	}
	return f
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
