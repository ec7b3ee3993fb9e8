package prompt

import (
	"fmt"
	"strings"
)

// Section headers the response parser recognises. Templates spell them exactly.
const (
	HeaderStrengths        = "STRENGTHS (EXACTLY 3):"
	HeaderWeaknesses       = "WEAKNESSES (EXACTLY 3):"
	HeaderRecommendations  = "RECOMMENDATIONS (EXACTLY 3):"
	HeaderSummary          = "SUMMARY:"
	HeaderRiskLevel        = "RISK LEVEL:"
	HeaderRiskFactors      = "RISK FACTORS (EXACTLY 5):"
	HeaderMitigation       = "MITIGATION STRATEGIES (EXACTLY 5):"
	HeaderCostReduction    = "COST REDUCTION OPPORTUNITIES (EXACTLY 5):"
	HeaderQuickWins        = "QUICK WINS (EXACTLY 3):"
	HeaderEstimatedSavings = "ESTIMATED SAVINGS:"
	HeaderGrowthOpps       = "GROWTH OPPORTUNITIES (EXACTLY 5):"
	HeaderGrowthStrategies = "GROWTH STRATEGIES (EXACTLY 3):"
	HeaderGrowthRisks      = "GROWTH RISKS (EXACTLY 3):"
	HeaderProjectedGrowth  = "PROJECTED GROWTH RATE:"
	HeaderCompStrengths    = "COMPETITIVE STRENGTHS (EXACTLY 3):"
	HeaderCompWeaknesses   = "COMPETITIVE WEAKNESSES (EXACTLY 3):"
	HeaderStrategicRecs    = "STRATEGIC RECOMMENDATIONS (EXACTLY 3):"
	HeaderRecommendation   = "RECOMMENDATION:"
	HeaderConfidence       = "CONFIDENCE:"
	HeaderTimeHorizon      = "TIME HORIZON:"
	HeaderKeyReasons       = "KEY REASONS (EXACTLY 3):"
	HeaderKeyRisks         = "KEY RISKS (EXACTLY 3):"
	HeaderCashFlowRecs     = "CASH FLOW RECOMMENDATIONS (EXACTLY 5):"
	HeaderWorkingCapital   = "WORKING CAPITAL IMPROVEMENTS (EXACTLY 3):"
	HeaderDetailed         = "DETAILED ANALYSIS:"
	HeaderKeyFindings      = "KEY FINDINGS:"
	HeaderOpenRecs         = "RECOMMENDATIONS:"
)

const systemAnalyst = "You are a senior financial analyst. Base every statement on the figures provided. " +
	"Never invent numbers that are not in the data."

const systemStructured = systemAnalyst + " Follow the requested output format exactly: " +
	"same headers, same order, numbered items, one item per line, no markdown."

const financialBlock = `FINANCIAL SUMMARY:
- Total Revenue: {{currency .Revenue}}
- Total Expenses: {{currency .Expenses}}
- Net Income: {{currency .NetIncome}}
- Total Assets: {{currency .Assets}}
- Total Liabilities: {{currency .Liabilities}}
- Total Equity: {{currency .Equity}}
`

const ratioBlock = `KEY RATIOS:
- Profit Margin: {{pct .ProfitMargin}}
- Current Ratio: {{ratio .CurrentRatio}}
- Debt-to-Equity: {{ratio .DebtToEquity}}
- Expense Ratio: {{pct .ExpenseRatio}}
`

const formatPreamble = `Respond using EXACTLY the format below. Use the headers exactly as written, ` +
	`number every item, and do not add any other sections.
`

func numbered(header string, n int, placeholder string) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%d. [%s]\n", i, placeholder)
	}
	b.WriteString("\n")
	return b.String()
}

func builtinTemplates() []*PromptTemplate {
	structured := func(kind Kind, name, desc, body string) *PromptTemplate {
		return &PromptTemplate{
			ID:             kind.ID(),
			Name:           name,
			Category:       CategoryStructured,
			Description:    desc,
			SystemPrompt:   systemStructured,
			UserPromptTmpl: body,
			Version:        "1",
		}
	}
	narrative := func(kind Kind, name, desc, body string) *PromptTemplate {
		return &PromptTemplate{
			ID:             kind.ID(),
			Name:           name,
			Category:       CategoryNarrative,
			Description:    desc,
			SystemPrompt:   systemAnalyst,
			UserPromptTmpl: body,
			Version:        "1",
		}
	}

	openFormat := "Structure your answer with a " + HeaderKeyFindings + " section and a " + HeaderOpenRecs +
		" section, each as a numbered list, followed by a short " + HeaderSummary + " paragraph.\n"

	return []*PromptTemplate{
		structured(KindHealth, "Financial Health", "Overall financial health with strengths and weaknesses",
			"Assess the financial health of this business.\n\n"+
				financialBlock+"\n"+ratioBlock+"\n"+
				"Rating from profit margin: {{.HealthRating}} (Good above 15%, Fair above 5%, otherwise Poor).\n\n"+
				formatPreamble+"\n"+
				numbered(HeaderStrengths, 3, "strength")+
				numbered(HeaderWeaknesses, 3, "weakness")+
				numbered(HeaderRecommendations, 3, "specific, actionable recommendation")+
				HeaderSummary+"\n[Two or three sentences on overall financial health.]\n"),

		structured(KindRisk, "Risk Assessment", "Risk factors and mitigation strategies",
			"Assess the financial risk of this business.\n\n"+
				financialBlock+"\n"+ratioBlock+"\n"+
				"Preliminary risk level: {{.RiskBucket}} (High if net income is negative or debt-to-equity exceeds 2.0; "+
				"Medium if the current ratio is below 1.0 or expenses exceed 80% of revenue; otherwise Low).\n\n"+
				formatPreamble+"\n"+
				HeaderRiskLevel+" [High, Medium or Low]\n\n"+
				numbered(HeaderRiskFactors, 5, "risk factor and its severity")+
				numbered(HeaderMitigation, 5, "mitigation strategy")+
				HeaderDetailed+"\n[Two or three sentences.]\n"),

		structured(KindOptimization, "Cost Optimization", "Cost reduction opportunities",
			"Identify cost optimization opportunities for this business.\n\n"+
				financialBlock+"\n"+ratioBlock+"\n"+
				formatPreamble+"\n"+
				numbered(HeaderCostReduction, 5, "opportunity")+
				numbered(HeaderQuickWins, 3, "quick win")+
				HeaderEstimatedSavings+" $[annual amount]\n\n"+
				HeaderDetailed+"\n[Two or three sentences.]\n"),

		structured(KindGrowth, "Growth Strategy", "Growth opportunities and strategies",
			"Identify growth opportunities for this business.\n\n"+
				financialBlock+"\n"+ratioBlock+"\n"+
				"{{if .Periods}}PERIOD HISTORY:\n{{range .Periods}}- {{.Period}}: revenue {{currency .Revenue}}{{if .HasGrowth}} ({{signed .RevenueGrowth}}% vs prior period){{end}}\n{{end}}\n{{end}}"+
				formatPreamble+"\n"+
				numbered(HeaderGrowthOpps, 5, "opportunity")+
				numbered(HeaderGrowthStrategies, 3, "strategy")+
				numbered(HeaderGrowthRisks, 3, "risk")+
				HeaderProjectedGrowth+" [number]%\n\n"+
				HeaderDetailed+"\n[Two or three sentences.]\n"),

		structured(KindBenchmark, "Industry Benchmarking", "Comparison against industry benchmarks",
			"Compare this business against its industry.\n\n"+
				"INDUSTRY: {{.Industry}}\n\n"+
				financialBlock+"\n"+
				"BENCHMARK COMPARISON:\n"+
				"{{range .Benchmarks}}- {{.MetricName}}: company {{num .CompanyValue}} vs industry average {{num .IndustryAverage}} ({{signed .Variance}}%, {{.PerformanceRating}})\n"+
				"{{else}}- No industry benchmark data available.\n{{end}}\n"+
				"Competitive score: {{num .CompetitiveScore}} ({{.Position}})\n\n"+
				formatPreamble+"\n"+
				numbered(HeaderCompStrengths, 3, "strength")+
				numbered(HeaderCompWeaknesses, 3, "weakness")+
				numbered(HeaderStrategicRecs, 3, "recommendation")+
				HeaderDetailed+"\n[Two or three sentences.]\n"),

		structured(KindInvestment, "Investment Recommendation", "Buy, hold or sell recommendation",
			"Give an investment recommendation for this business.\n\n"+
				financialBlock+"\n"+ratioBlock+"\n"+
				"Health score: {{.HealthScore}}/100 ({{.HealthRating}}). Risk level: {{.RiskBucket}}.\n\n"+
				formatPreamble+"\n"+
				HeaderRecommendation+" [Buy, Hold or Sell]\n"+
				HeaderConfidence+" [High, Moderate or Low]\n"+
				HeaderTimeHorizon+" [Short-term, Medium-term or Long-term]\n\n"+
				numbered(HeaderKeyReasons, 3, "reason")+
				numbered(HeaderKeyRisks, 3, "risk")+
				HeaderDetailed+"\n[Two or three sentences.]\n"),

		structured(KindCashFlow, "Cash Flow Optimization", "Cash position, runway and working capital",
			"Recommend how this business can optimize its cash flow.\n\n"+
				financialBlock+"\n"+
				"CASH POSITION:\n"+
				"- Current Cash Position: {{currency .Cash.CurrentCashPosition}}\n"+
				"- Monthly Burn Rate: {{currency .Cash.MonthlyBurnRate}}\n"+
				"- Runway: {{num1 .Cash.RunwayMonths}} months\n\n"+
				formatPreamble+"\n"+
				numbered(HeaderCashFlowRecs, 5, "recommendation")+
				numbered(HeaderWorkingCapital, 3, "working capital improvement")+
				HeaderDetailed+"\n[Two or three sentences.]\n"),

		narrative(KindSummary, "Executive Summary", "Executive summary of the financial data",
			"Write an executive summary of this business's financial position.\n\n"+
				financialBlock+"\n"+ratioBlock+"\n"+openFormat),

		narrative(KindTrend, "Trend Analysis", "Period over period trends",
			"Analyze the financial trends of this business across periods.\n\n"+
				"PERIOD HISTORY:\n"+
				"{{range .Periods}}- {{.Period}}: revenue {{currency .Revenue}}, expenses {{currency .Expenses}}, net income {{currency .NetIncome}}{{if .HasGrowth}} (revenue {{signed .RevenueGrowth}}%){{end}}\n"+
				"{{else}}- Only one period is available.\n{{end}}\n"+
				financialBlock+"\n"+openFormat),

		narrative(KindAnomaly, "Anomaly Review", "Explanation of unusual records",
			"Review the unusual records found in this business's financial data.\n\n"+
				"FLAGGED RECORDS:\n"+
				"{{range .Anomalies}}- {{.Account}} ({{.Category}}{{if .Period}}, {{.Period}}{{end}}): {{currency .Amount}} against a category mean of {{currency .Mean}}, z-score {{zscore .ZScore}}\n"+
				"{{else}}- No records deviate significantly from their category.\n{{end}}\n"+
				"FIRST-DIGIT TEST:\n"+
				"{{with .Digits}}- {{.Count}} amounts, mean absolute deviation {{mad .MAD}} from the expected leading-digit distribution ({{.Level}})\n"+
				"{{else}}- Too few amounts for a first-digit test.\n{{end}}\n"+
				financialBlock+"\n"+openFormat),

		narrative(KindRatio, "Ratio Analysis", "Interpretation of financial ratios",
			"Interpret the financial ratios of this business.\n\n"+
				"RATIOS:\n"+
				"{{range .Ratios}}- {{.Name}}: {{num .Value}}\n{{else}}- No ratios could be computed.\n{{end}}\n"+
				"{{if .Composition}}COMPOSITION:\n"+
				"{{range .Composition}}- {{.Category}} / {{.Label}}: {{currency .Amount}} ({{pct .ShareOfCategory}} of {{.Category}}{{if .HasRevenueShare}}, {{pct .ShareOfRevenue}} of revenue{{end}})\n{{end}}\n{{end}}"+
				financialBlock+"\n"+openFormat),

		narrative(KindComparison, "Period Comparison", "Comparison of first and latest periods",
			"Compare the earliest and latest periods of this business.\n\n"+
				"PERIODS:\n"+
				"{{range .Periods}}- {{.Period}}: revenue {{currency .Revenue}}, expenses {{currency .Expenses}}, net income {{currency .NetIncome}}\n"+
				"{{else}}- No period data available.\n{{end}}\n"+
				openFormat),

		narrative(KindForecast, "Forecast", "Near-term projection",
			"Project the next three periods for this business and state your assumptions.\n\n"+
				"PERIOD HISTORY:\n"+
				"{{range .Periods}}- {{.Period}}: revenue {{currency .Revenue}}, expenses {{currency .Expenses}}\n"+
				"{{else}}- No period data available.\n{{end}}\n"+
				financialBlock+"\n"+openFormat),

		narrative(KindCustom, "Custom Question", "Free-form question about the data",
			"Answer the question below using the financial data provided.\n\n"+
				"QUESTION: {{.Question}}\n\n"+
				financialBlock+"\n"+ratioBlock+"\n"+openFormat),
	}
}
