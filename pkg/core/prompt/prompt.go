// Package prompt renders the analysis prompts sent to the text generation backend.
// Built-in templates can be overridden by JSON files loaded at runtime, making it
// possible to tune wording without code changes. Rendering is deterministic: the same
// input always yields byte-identical output.
package prompt

import (
	"strings"

	"financial_insights/pkg/core/calc"
	"financial_insights/pkg/models"
)

// Kind identifies an analysis type.
type Kind string

// Kinds with a strict output contract. Their templates dictate exact headers and item
// counts because the response parser is pattern based.
const (
	KindHealth       Kind = "health"
	KindRisk         Kind = "risk"
	KindOptimization Kind = "optimization"
	KindGrowth       Kind = "growth"
	KindBenchmark    Kind = "benchmark"
	KindInvestment   Kind = "investment"
	KindCashFlow     Kind = "cashflow"
)

// Open-ended kinds. Their output is narrative.
const (
	KindSummary    Kind = "summary"
	KindTrend      Kind = "trend"
	KindAnomaly    Kind = "anomaly"
	KindRatio      Kind = "ratio"
	KindComparison Kind = "comparison"
	KindForecast   Kind = "forecast"
	KindCustom     Kind = "custom"
)

// AllKinds lists every supported kind in a stable order.
var AllKinds = []Kind{
	KindHealth, KindRisk, KindOptimization, KindGrowth, KindBenchmark, KindInvestment, KindCashFlow,
	KindSummary, KindTrend, KindAnomaly, KindRatio, KindComparison, KindForecast, KindCustom,
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, bool) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Structured reports whether the kind uses the strict output contract.
func (k Kind) Structured() bool {
	switch k {
	case KindHealth, KindRisk, KindOptimization, KindGrowth, KindBenchmark, KindInvestment, KindCashFlow:
		return true
	}
	return false
}

const idPrefix = "analysis."

// ID is the registry key of the kind's template.
func (k Kind) ID() string {
	return idPrefix + string(k)
}

// KindFromID maps a registry key back to its kind.
func KindFromID(id string) (Kind, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return "", false
	}
	return ParseKind(strings.TrimPrefix(id, idPrefix))
}

// Template categories.
const (
	CategoryStructured = "structured"
	CategoryNarrative  = "narrative"
)

// PromptTemplate represents a reusable prompt with metadata
type PromptTemplate struct {
	ID             string `json:"id"`                   // e.g. "analysis.health"
	Name           string `json:"name"`                 // Human-readable name
	Category       string `json:"category"`             // structured or narrative
	Description    string `json:"description"`          // Description of prompt purpose
	SystemPrompt   string `json:"system_prompt"`        // Sent as the system message
	UserPromptTmpl string `json:"user_prompt_template"` // Go template for user prompt
	Version        string `json:"version"`
}

// Input carries everything a template may embed.
type Input struct {
	Summary  calc.Summary
	Ratios   calc.RatioSet
	Industry string
	Question string

	Periods     []calc.PeriodSummary
	Anomalies   []calc.Anomaly
	Digits      *calc.DigitTest
	Composition []calc.ShareLine

	Benchmarks       []models.BenchmarkComparison
	CompetitiveScore float64
	Position         string
}
