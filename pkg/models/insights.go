package models

import "time"

// =============================================================================
// INSIGHT RESULT TYPES
// Built once per request and never mutated after being returned.
// =============================================================================

// InsightMeta is shared by every insight DTO.
type InsightMeta struct {
	ID              string    `json:"id"`
	DocumentID      int64     `json:"document_id"`
	Kind            string    `json:"kind"`
	ModelUsed       string    `json:"model_used"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Meta returns the shared fields of any insight DTO.
func (m InsightMeta) Meta() InsightMeta {
	return m
}

// AIInsight is the result of an open-ended analysis (summary, trend, anomaly, ...).
type AIInsight struct {
	InsightMeta
	Question        string            `json:"question,omitempty"`
	Summary         string            `json:"summary"`
	Sections        map[string]string `json:"sections"`
	KeyFindings     []string          `json:"key_findings"`
	Recommendations []string          `json:"recommendations"`
	Content         string            `json:"content"`
}

// FinancialHealth is the health-check result.
type FinancialHealth struct {
	InsightMeta
	HealthScore      int                `json:"health_score"`
	Rating           string             `json:"rating"`
	Strengths        []string           `json:"strengths"`
	Weaknesses       []string           `json:"weaknesses"`
	Recommendations  []string           `json:"recommendations"`
	KeyRatios        map[string]float64 `json:"key_ratios"`
	Summary          string             `json:"summary"`
	DetailedAnalysis string             `json:"detailed_analysis"`
}

// RiskAssessment is the risk-analysis result.
type RiskAssessment struct {
	InsightMeta
	RiskScore            int      `json:"risk_score"`
	RiskLevel            string   `json:"risk_level"`
	ReportedRiskLevel    string   `json:"reported_risk_level,omitempty"`
	RiskFactors          []string `json:"risk_factors"`
	MitigationStrategies []string `json:"mitigation_strategies"`
	DetailedAnalysis     string   `json:"detailed_analysis"`
}

// CostOptimization lists expense-reduction opportunities.
type CostOptimization struct {
	InsightMeta
	TotalExpenses    float64  `json:"total_expenses"`
	ExpenseRatio     float64  `json:"expense_ratio"`
	Opportunities    []string `json:"opportunities"`
	QuickWins        []string `json:"quick_wins"`
	EstimatedSavings float64  `json:"estimated_savings"`
	DetailedAnalysis string   `json:"detailed_analysis"`
}

// GrowthStrategy lists growth opportunities and the strategies to reach them.
type GrowthStrategy struct {
	InsightMeta
	Opportunities       []string `json:"opportunities"`
	Strategies          []string `json:"strategies"`
	Risks               []string `json:"risks"`
	ProjectedGrowthRate float64  `json:"projected_growth_rate"`
	DetailedAnalysis    string   `json:"detailed_analysis"`
}

// BenchmarkComparison compares one company metric with its industry reference.
type BenchmarkComparison struct {
	MetricName        string  `json:"metric_name"`
	CompanyValue      float64 `json:"company_value"`
	IndustryAverage   float64 `json:"industry_average"`
	IndustryMedian    float64 `json:"industry_median"`
	Variance          float64 `json:"variance"`
	PerformanceRating string  `json:"performance_rating"`
	Percentile        float64 `json:"percentile"`
}

// CompetitiveAnalysis is the industry benchmarking result.
type CompetitiveAnalysis struct {
	InsightMeta
	Industry         string                `json:"industry"`
	Comparisons      []BenchmarkComparison `json:"comparisons"`
	CompetitiveScore float64               `json:"competitive_score"`
	Position         string                `json:"position"`
	Strengths        []string              `json:"strengths"`
	Weaknesses       []string              `json:"weaknesses"`
	Recommendations  []string              `json:"recommendations"`
	DetailedAnalysis string                `json:"detailed_analysis"`
}

// InvestmentRecommendation is the investment-advice result.
type InvestmentRecommendation struct {
	InsightMeta
	Rating           string   `json:"rating"`
	Confidence       string   `json:"confidence"`
	TimeHorizon      string   `json:"time_horizon"`
	Score            int      `json:"score"`
	Reasons          []string `json:"reasons"`
	Risks            []string `json:"risks"`
	DetailedAnalysis string   `json:"detailed_analysis"`
}

// CashFlowOptimization is the cash-flow result. IsFallback marks the fixed default
// returned when generation failed.
type CashFlowOptimization struct {
	InsightMeta
	CurrentCashPosition float64  `json:"current_cash_position"`
	MonthlyBurnRate     float64  `json:"monthly_burn_rate"`
	RunwayMonths        float64  `json:"runway_months"`
	Recommendations     []string `json:"recommendations"`
	WorkingCapitalTips  []string `json:"working_capital_tips"`
	IsFallback          bool     `json:"is_fallback"`
	DetailedAnalysis    string   `json:"detailed_analysis"`
}
