package insight

import (
	"context"
	"fmt"
	"strings"

	"financial_insights/pkg/core/calc"
	"financial_insights/pkg/core/parse"
	"financial_insights/pkg/core/prompt"
	"financial_insights/pkg/models"
)

// Request carries the optional inputs of an insight request.
type Request struct {
	Question string
	Industry string
}

// Run dispatches to the assembler for kind.
func (s *Service) Run(ctx context.Context, documentID int64, kind prompt.Kind, req Request) (any, error) {
	switch kind {
	case prompt.KindHealth:
		return s.AnalyzeFinancialHealth(ctx, documentID)
	case prompt.KindRisk:
		return s.AssessRisk(ctx, documentID)
	case prompt.KindOptimization:
		return s.OptimizeCosts(ctx, documentID)
	case prompt.KindGrowth:
		return s.IdentifyGrowth(ctx, documentID)
	case prompt.KindBenchmark:
		return s.PerformIndustryBenchmarking(ctx, documentID, req.Industry)
	case prompt.KindInvestment:
		return s.RecommendInvestment(ctx, documentID)
	case prompt.KindCashFlow:
		return s.OptimizeCashFlow(ctx, documentID)
	default:
		return s.GenerateInsight(ctx, documentID, kind, req.Question)
	}
}

// AnalyzeFinancialHealth scores the document and asks for strengths, weaknesses and recommendations.
func (s *Service) AnalyzeFinancialHealth(ctx context.Context, documentID int64) (*models.FinancialHealth, error) {
	r := s.newRun(ctx, documentID, prompt.KindHealth)
	data, err := s.prepare(ctx, r)
	if err != nil {
		return nil, err
	}
	gen, err := s.generate(ctx, r, prompt.Input{Summary: data.summary, Ratios: data.ratios})
	if err != nil {
		return nil, err
	}

	out := &models.FinancialHealth{
		InsightMeta:      r.meta(gen.model),
		HealthScore:      calc.HealthScore(data.summary, data.ratios),
		Rating:           calc.HealthRating(data.ratios.Get(calc.ProfitMargin)),
		Strengths:        r.list(gen.text, parse.Strengths),
		Weaknesses:       r.list(gen.text, parse.Weaknesses),
		Recommendations:  r.list(gen.text, parse.Recommendations),
		KeyRatios:        data.ratios.Clone(),
		Summary:          parse.LabeledBlock(gen.text, "SUMMARY"),
		DetailedAnalysis: detailed(gen.text),
	}
	s.finish(ctx, r, out)
	return out, nil
}

// AssessRisk scores risk from the numbers and extracts risk factors and mitigations.
func (s *Service) AssessRisk(ctx context.Context, documentID int64) (*models.RiskAssessment, error) {
	r := s.newRun(ctx, documentID, prompt.KindRisk)
	data, err := s.prepare(ctx, r)
	if err != nil {
		return nil, err
	}
	gen, err := s.generate(ctx, r, prompt.Input{Summary: data.summary, Ratios: data.ratios})
	if err != nil {
		return nil, err
	}

	out := &models.RiskAssessment{
		InsightMeta:          r.meta(gen.model),
		RiskScore:            calc.RiskScore(data.summary, data.ratios),
		RiskLevel:            calc.RiskLevel(data.summary, data.ratios),
		ReportedRiskLevel:    parse.RiskLevel(gen.text),
		RiskFactors:          r.list(gen.text, parse.RiskFactors),
		MitigationStrategies: r.list(gen.text, parse.MitigationStrategies),
		DetailedAnalysis:     detailed(gen.text),
	}
	s.finish(ctx, r, out)
	return out, nil
}

// OptimizeCosts extracts cost reduction opportunities and an estimated saving.
func (s *Service) OptimizeCosts(ctx context.Context, documentID int64) (*models.CostOptimization, error) {
	r := s.newRun(ctx, documentID, prompt.KindOptimization)
	data, err := s.prepare(ctx, r)
	if err != nil {
		return nil, err
	}
	gen, err := s.generate(ctx, r, prompt.Input{Summary: data.summary, Ratios: data.ratios})
	if err != nil {
		return nil, err
	}

	savings, _ := parse.Lookup(parse.ExtractAmounts(gen.text), "estimated savings", "savings")
	out := &models.CostOptimization{
		InsightMeta:      r.meta(gen.model),
		TotalExpenses:    data.summary.Expenses,
		ExpenseRatio:     data.ratios.Get(calc.ExpenseRatio),
		Opportunities:    r.list(gen.text, parse.CostSavings),
		QuickWins:        r.list(gen.text, parse.QuickWins),
		EstimatedSavings: savings,
		DetailedAnalysis: detailed(gen.text),
	}
	s.finish(ctx, r, out)
	return out, nil
}

// IdentifyGrowth extracts growth opportunities, strategies and risks. When the text
// gives no projected rate, the latest period-over-period revenue growth is used.
func (s *Service) IdentifyGrowth(ctx context.Context, documentID int64) (*models.GrowthStrategy, error) {
	r := s.newRun(ctx, documentID, prompt.KindGrowth)
	data, err := s.prepare(ctx, r)
	if err != nil {
		return nil, err
	}
	periods := calc.AggregateByPeriod(data.records)
	gen, err := s.generate(ctx, r, prompt.Input{Summary: data.summary, Ratios: data.ratios, Periods: periods})
	if err != nil {
		return nil, err
	}

	rate, ok := parse.Lookup(parse.ExtractPercentages(gen.text), "projected growth", "growth rate", "growth")
	if !ok && len(periods) >= 2 {
		last, prior := periods[len(periods)-1].Summary, periods[len(periods)-2].Summary
		rate = calc.Round(calc.GrowthRate(last.Revenue, prior.Revenue)*100, 2)
	}

	out := &models.GrowthStrategy{
		InsightMeta:         r.meta(gen.model),
		Opportunities:       r.list(gen.text, parse.Opportunities),
		Strategies:          r.list(gen.text, parse.GrowthStrategies),
		Risks:               r.list(gen.text, parse.GrowthRisks),
		ProjectedGrowthRate: rate,
		DetailedAnalysis:    detailed(gen.text),
	}
	s.finish(ctx, r, out)
	return out, nil
}

// PerformIndustryBenchmarking compares the document against industry benchmarks.
// An industry without benchmarks yields no comparisons, a score of 0 and the
// "Insufficient Data" position.
func (s *Service) PerformIndustryBenchmarking(ctx context.Context, documentID int64, industry string) (*models.CompetitiveAnalysis, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		industry = s.cfg.DefaultIndustry
	}

	r := s.newRun(ctx, documentID, prompt.KindBenchmark)
	data, err := s.prepare(ctx, r)
	if err != nil {
		return nil, err
	}

	entries, err := s.benchmarks.BenchmarksForIndustry(ctx, industry)
	if err != nil {
		return nil, r.fail(fmt.Errorf("load benchmarks for %s: %w", industry, err))
	}
	comparisons := calc.CompareToBenchmarks(data.summary, data.ratios, entries, s.cfg.PercentileMethod)
	score := calc.CompetitiveScore(comparisons)
	position := calc.CompetitivePosition(score)
	if len(comparisons) == 0 {
		position = calc.PositionUnknown
	}

	gen, err := s.generate(ctx, r, prompt.Input{
		Summary:          data.summary,
		Ratios:           data.ratios,
		Industry:         industry,
		Benchmarks:       comparisons,
		CompetitiveScore: score,
		Position:         position,
	})
	if err != nil {
		return nil, err
	}

	out := &models.CompetitiveAnalysis{
		InsightMeta:      r.meta(gen.model),
		Industry:         industry,
		Comparisons:      comparisons,
		CompetitiveScore: score,
		Position:         position,
		Strengths:        r.list(gen.text, parse.Strengths),
		Weaknesses:       r.list(gen.text, parse.Weaknesses),
		Recommendations:  r.list(gen.text, parse.Recommendations),
		DetailedAnalysis: detailed(gen.text),
	}
	s.finish(ctx, r, out)
	return out, nil
}

// RecommendInvestment classifies the text into a Buy/Hold/Sell recommendation.
func (s *Service) RecommendInvestment(ctx context.Context, documentID int64) (*models.InvestmentRecommendation, error) {
	r := s.newRun(ctx, documentID, prompt.KindInvestment)
	data, err := s.prepare(ctx, r)
	if err != nil {
		return nil, err
	}
	gen, err := s.generate(ctx, r, prompt.Input{Summary: data.summary, Ratios: data.ratios})
	if err != nil {
		return nil, err
	}

	out := &models.InvestmentRecommendation{
		InsightMeta:      r.meta(gen.model),
		Rating:           parse.InvestmentRating(gen.text),
		Confidence:       parse.ConfidenceLevel(gen.text),
		TimeHorizon:      parse.TimeHorizon(gen.text),
		Score:            calc.InvestmentScore(data.summary, data.ratios),
		Reasons:          r.list(gen.text, parse.InvestmentReasons),
		Risks:            r.list(gen.text, parse.InvestmentRisks),
		DetailedAnalysis: detailed(gen.text),
	}
	s.finish(ctx, r, out)
	return out, nil
}

// Cash-flow fallback used when generation fails under the fallback policy.
var (
	fallbackCashFlow = calc.CashFlowFigures{
		CurrentCashPosition: 75000,
		MonthlyBurnRate:     8000,
		RunwayMonths:        9.4,
	}
	fallbackCashFlowRecommendations = []string{
		"Accelerate collection of accounts receivable",
		"Negotiate extended payment terms with suppliers",
		"Defer non-essential capital expenditure",
	}
	fallbackWorkingCapitalTips = []string{
		"Review inventory levels against demand",
		"Offer early payment discounts to customers",
		"Track the cash conversion cycle monthly",
	}
)

// OptimizeCashFlow reports cash position, burn rate and runway with recommendations.
// Under the fallback policy a generation failure returns fixed figures with IsFallback set.
func (s *Service) OptimizeCashFlow(ctx context.Context, documentID int64) (*models.CashFlowOptimization, error) {
	r := s.newRun(ctx, documentID, prompt.KindCashFlow)
	data, err := s.prepare(ctx, r)
	if err != nil {
		return nil, err
	}
	gen, err := s.generate(ctx, r, prompt.Input{Summary: data.summary, Ratios: data.ratios})
	if err != nil {
		return nil, err
	}

	var out *models.CashFlowOptimization
	if gen.fallback {
		out = &models.CashFlowOptimization{
			InsightMeta:         r.meta(gen.model),
			CurrentCashPosition: fallbackCashFlow.CurrentCashPosition,
			MonthlyBurnRate:     fallbackCashFlow.MonthlyBurnRate,
			RunwayMonths:        fallbackCashFlow.RunwayMonths,
			Recommendations:     append([]string(nil), fallbackCashFlowRecommendations...),
			WorkingCapitalTips:  append([]string(nil), fallbackWorkingCapitalTips...),
			IsFallback:          true,
		}
	} else {
		figures := calc.CashFlow(data.summary)
		out = &models.CashFlowOptimization{
			InsightMeta:         r.meta(gen.model),
			CurrentCashPosition: figures.CurrentCashPosition,
			MonthlyBurnRate:     figures.MonthlyBurnRate,
			RunwayMonths:        figures.RunwayMonths,
			Recommendations:     r.list(gen.text, parse.CashFlowActions),
			WorkingCapitalTips:  r.list(gen.text, parse.WorkingCapital),
			DetailedAnalysis:    detailed(gen.text),
		}
	}
	s.finish(ctx, r, out)
	return out, nil
}

// GenerateInsight answers an open-ended kind (summary, trend, anomaly, ratio,
// comparison, forecast, custom). The custom kind requires a question.
func (s *Service) GenerateInsight(ctx context.Context, documentID int64, kind prompt.Kind, question string) (*models.AIInsight, error) {
	if _, ok := prompt.ParseKind(string(kind)); !ok || kind.Structured() {
		return nil, fmt.Errorf("%w: unsupported open-ended kind %q", ErrInvalidInput, kind)
	}
	question = strings.TrimSpace(question)
	if kind == prompt.KindCustom && question == "" {
		return nil, fmt.Errorf("%w: custom insight needs a question", ErrInvalidInput)
	}

	r := s.newRun(ctx, documentID, kind)
	data, err := s.prepare(ctx, r)
	if err != nil {
		return nil, err
	}

	in := prompt.Input{Summary: data.summary, Ratios: data.ratios, Question: question}
	switch kind {
	case prompt.KindTrend, prompt.KindComparison, prompt.KindForecast:
		in.Periods = calc.AggregateByPeriod(data.records)
	case prompt.KindAnomaly:
		in.Anomalies = calc.DetectAnomalies(data.records, s.cfg.AnomalyThreshold)
		if dt, ok := calc.FirstDigitTest(data.records); ok {
			in.Digits = &dt
		}
	case prompt.KindRatio:
		in.Composition = calc.CommonSize(data.records, data.summary)
	}
	if kind == prompt.KindComparison && len(in.Periods) > 2 {
		in.Periods = []calc.PeriodSummary{in.Periods[0], in.Periods[len(in.Periods)-1]}
	}

	gen, err := s.generate(ctx, r, in)
	if err != nil {
		return nil, err
	}

	sections := parse.ExtractSections(gen.text)
	summary := parse.LabeledBlock(gen.text, "SUMMARY")
	if summary == "" && len(sections) > 0 {
		summary = sections[0].Content
	}

	out := &models.AIInsight{
		InsightMeta:     r.meta(gen.model),
		Question:        question,
		Summary:         summary,
		Sections:        parse.SectionMap(sections),
		KeyFindings:     r.list(gen.text, parse.KeyFindings),
		Recommendations: r.list(gen.text, parse.Recommendations),
		Content:         gen.text,
	}
	s.finish(ctx, r, out)
	return out, nil
}
