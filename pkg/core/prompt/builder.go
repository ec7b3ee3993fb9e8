package prompt

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/template"

	"financial_insights/pkg/core/calc"
	"financial_insights/pkg/models"

	"github.com/dustin/go-humanize"
)

// Builder renders prompts from the registry.
type Builder struct {
	registry *Registry
}

// NewBuilder creates a builder. A nil registry means the built-in templates.
func NewBuilder(r *Registry) *Builder {
	if r == nil {
		r = NewRegistry()
	}
	return &Builder{registry: r}
}

// Registry exposes the underlying registry for loading overrides.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// System returns the system prompt for a kind, or "" when none is defined.
func (b *Builder) System(kind Kind) string {
	pt, err := b.registry.GetPrompt(kind.ID())
	if err != nil {
		return ""
	}
	return pt.SystemPrompt
}

// Build renders the user prompt for a kind.
func (b *Builder) Build(kind Kind, in Input) (string, error) {
	pt, err := b.registry.GetPrompt(kind.ID())
	if err != nil {
		return "", err
	}
	return RenderUserPrompt(pt, newTemplateData(in))
}

// RenderUserPrompt executes the user prompt template with the given data
func RenderUserPrompt(pt *PromptTemplate, data any) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", fmt.Errorf("prompt %s has no user template", pt.ID)
	}

	tmpl, err := template.New(pt.ID).Funcs(funcMap).Option("missingkey=error").Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", pt.ID, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", pt.ID, err)
	}

	return strings.TrimSpace(buf.String()) + "\n", nil
}

// =============================================================================
// TEMPLATE DATA
// =============================================================================

type ratioLine struct {
	Name  string
	Value float64
}

type periodLine struct {
	Period        string
	Revenue       float64
	Expenses      float64
	NetIncome     float64
	HasGrowth     bool
	RevenueGrowth float64
}

type anomalyLine struct {
	Account  string
	Category string
	Period   string
	Amount   float64
	Mean     float64
	ZScore   float64
}

// templateData is the flat view every template renders against.
type templateData struct {
	Revenue     float64
	Expenses    float64
	NetIncome   float64
	Assets      float64
	Liabilities float64
	Equity      float64
	RecordCount int

	ProfitMargin float64
	CurrentRatio float64
	DebtToEquity float64
	ExpenseRatio float64
	Ratios       []ratioLine

	HealthRating string
	HealthScore  int
	RiskBucket   string
	RiskScore    int
	Cash         calc.CashFlowFigures

	Industry         string
	Question         string
	Benchmarks       []models.BenchmarkComparison
	CompetitiveScore float64
	Position         string

	Periods     []periodLine
	Anomalies   []anomalyLine
	Digits      *calc.DigitTest
	Composition []calc.ShareLine
}

func newTemplateData(in Input) templateData {
	s := in.Summary
	r := in.Ratios
	if r == nil {
		r = calc.Ratios(s)
	}

	d := templateData{
		Revenue:     s.Revenue,
		Expenses:    s.Expenses,
		NetIncome:   s.NetIncome,
		Assets:      s.Assets,
		Liabilities: s.Liabilities,
		Equity:      s.Equity,
		RecordCount: s.RecordCount,

		ProfitMargin: r.Get(calc.ProfitMargin),
		CurrentRatio: r.Get(calc.CurrentRatio),
		DebtToEquity: r.Get(calc.DebtToEquity),
		ExpenseRatio: r.Get(calc.ExpenseRatio),

		HealthRating: calc.HealthRating(r.Get(calc.ProfitMargin)),
		HealthScore:  calc.HealthScore(s, r),
		RiskBucket:   calc.RiskLevel(s, r),
		RiskScore:    calc.RiskScore(s, r),
		Cash:         calc.CashFlow(s),

		Industry:         in.Industry,
		Question:         strings.TrimSpace(in.Question),
		Benchmarks:       in.Benchmarks,
		CompetitiveScore: in.CompetitiveScore,
		Position:         in.Position,

		Digits:      in.Digits,
		Composition: in.Composition,
	}
	if d.Industry == "" {
		d.Industry = "General"
	}

	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.Ratios = append(d.Ratios, ratioLine{Name: name, Value: r[name]})
	}

	for i, p := range in.Periods {
		line := periodLine{
			Period:    p.Period,
			Revenue:   p.Summary.Revenue,
			Expenses:  p.Summary.Expenses,
			NetIncome: p.Summary.NetIncome,
		}
		if i > 0 && in.Periods[i-1].Summary.Revenue != 0 {
			line.HasGrowth = true
			line.RevenueGrowth = calc.GrowthRate(p.Summary.Revenue, in.Periods[i-1].Summary.Revenue) * 100
		}
		d.Periods = append(d.Periods, line)
	}

	for _, a := range in.Anomalies {
		d.Anomalies = append(d.Anomalies, anomalyLine{
			Account:  a.Record.AccountName,
			Category: string(a.Record.Category),
			Period:   a.Record.Period,
			Amount:   a.Record.Amount.InexactFloat64(),
			Mean:     a.Mean,
			ZScore:   a.ZScore,
		})
	}
	return d
}

// =============================================================================
// FORMATTING
// =============================================================================

var funcMap = template.FuncMap{
	"currency": FormatCurrency,
	"pct":      func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	"signed":   func(v float64) string { return fmt.Sprintf("%+.2f", v) },
	"ratio":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"num":      func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"num1":     func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"zscore":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"mad":      func(v float64) string { return fmt.Sprintf("%.4f", v) },
}

// FormatCurrency renders "$1,234.56" with a leading minus for negative amounts.
func FormatCurrency(v float64) string {
	s := "$" + humanize.FormatFloat("#,###.##", math.Abs(v))
	if v < 0 {
		return "-" + s
	}
	return s
}
