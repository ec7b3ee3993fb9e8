package parse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// DefaultCap bounds every extracted list.
const DefaultCap = 5

// Tier names which strategy produced a list.
type Tier string

const (
	TierJSON     Tier = "json"
	TierSection  Tier = "section"
	TierKeyword  Tier = "keyword"
	TierSentinel Tier = "sentinel"
)

// ListSpec describes one kind of list: where it lives and how to recognise its items.
type ListSpec struct {
	Name     string
	Markers  []string // upper-case header synonyms that start the block
	JSONKeys []string // keys tried when the response is JSON
	Keywords []string // lower-case domain words for the keyword tier
	Sentinel string
	Cap      int
}

// List is an extraction result. Degraded means only the sentinel was found.
type List struct {
	Items    []string
	Tier     Tier
	Degraded bool
}

// Predefined specs.
var (
	Strengths = ListSpec{
		Name:     "strengths",
		Markers:  []string{"STRENGTHS", "POSITIVES"},
		JSONKeys: []string{"strengths", "competitive_strengths"},
		Keywords: []string{"strong", "healthy", "positive", "solid", "robust"},
		Sentinel: "Unable to extract strengths from the analysis",
	}
	Weaknesses = ListSpec{
		Name:     "weaknesses",
		Markers:  []string{"WEAKNESSES", "AREAS OF CONCERN", "AREAS FOR IMPROVEMENT"},
		JSONKeys: []string{"weaknesses", "competitive_weaknesses", "concerns"},
		Keywords: []string{"weak", "low", "decline", "negative", "concern", "high expense"},
		Sentinel: "Unable to extract weaknesses from the analysis",
	}
	Recommendations = ListSpec{
		Name:     "recommendations",
		Markers:  []string{"RECOMMENDATIONS", "RECOMMENDED ACTIONS", "ACTION ITEMS", "NEXT STEPS"},
		JSONKeys: []string{"recommendations", "strategic_recommendations", "actions"},
		Keywords: []string{"recommend", "should", "consider", "improve", "reduce", "increase"},
		Sentinel: "Unable to extract recommendations from the analysis",
	}
	RiskFactors = ListSpec{
		Name:     "risk factors",
		Markers:  []string{"RISK FACTORS", "KEY RISKS", "CONCERNS"},
		JSONKeys: []string{"risk_factors", "risks"},
		Keywords: []string{"risk", "debt", "negative", "decline", "loss", "liquidity", "exposure"},
		Sentinel: "Unable to extract risk factors from the analysis",
	}
	MitigationStrategies = ListSpec{
		Name:     "mitigation strategies",
		Markers:  []string{"MITIGATION"},
		JSONKeys: []string{"mitigation_strategies", "mitigations"},
		Keywords: []string{"mitigate", "diversify", "hedge", "monitor", "reduce", "establish"},
		Sentinel: "Unable to extract mitigation strategies from the analysis",
	}
	Opportunities = ListSpec{
		Name:     "opportunities",
		Markers:  []string{"OPPORTUNITIES"},
		JSONKeys: []string{"opportunities", "growth_opportunities", "cost_reduction_opportunities"},
		Keywords: []string{"opportunity", "growth", "expand", "new market", "increase"},
		Sentinel: "Unable to extract opportunities from the analysis",
	}
	GrowthStrategies = ListSpec{
		Name:     "growth strategies",
		Markers:  []string{"GROWTH STRATEGIES", "STRATEGIC INITIATIVES", "ACTION PLAN"},
		JSONKeys: []string{"growth_strategies", "strategies"},
		Keywords: []string{"strategy", "launch", "invest", "partner", "expand"},
		Sentinel: "Unable to extract growth strategies from the analysis",
	}
	GrowthRisks = ListSpec{
		Name:     "growth risks",
		Markers:  []string{"GROWTH RISKS"},
		JSONKeys: []string{"growth_risks", "risks"},
		Keywords: []string{"risk", "competition", "uncertain"},
		Sentinel: "Unable to extract growth risks from the analysis",
	}
	CostSavings = ListSpec{
		Name:     "cost savings",
		Markers:  []string{"COST REDUCTION", "SAVINGS OPPORTUNITIES", "COST SAVINGS"},
		JSONKeys: []string{"cost_reduction_opportunities", "opportunities", "savings"},
		Keywords: []string{"reduce", "cut", "renegotiate", "consolidate", "automate", "saving"},
		Sentinel: "Unable to extract cost savings from the analysis",
	}
	QuickWins = ListSpec{
		Name:     "quick wins",
		Markers:  []string{"QUICK WINS"},
		JSONKeys: []string{"quick_wins"},
		Keywords: []string{"immediately", "quick", "this month"},
		Sentinel: "Unable to extract quick wins from the analysis",
	}
	InvestmentReasons = ListSpec{
		Name:     "investment reasons",
		Markers:  []string{"KEY REASONS", "REASONS", "INVESTMENT THESIS", "RATIONALE"},
		JSONKeys: []string{"reasons", "key_reasons"},
		Keywords: []string{"profit", "growth", "strong", "margin", "return"},
		Sentinel: "Unable to extract investment reasons from the analysis",
	}
	InvestmentRisks = ListSpec{
		Name:     "investment risks",
		Markers:  []string{"KEY RISKS", "INVESTMENT RISKS"},
		JSONKeys: []string{"risks", "key_risks"},
		Keywords: []string{"risk", "debt", "loss", "volatil", "decline"},
		Sentinel: "Unable to extract investment risks from the analysis",
	}
	KeyFindings = ListSpec{
		Name:     "key findings",
		Markers:  []string{"KEY FINDINGS", "FINDINGS", "KEY INSIGHTS", "OBSERVATIONS"},
		JSONKeys: []string{"key_findings", "findings", "insights"},
		Keywords: []string{"revenue", "expense", "income", "margin", "trend", "increase", "decrease"},
		Sentinel: "Unable to extract key findings from the analysis",
	}
	CashFlowActions = ListSpec{
		Name:     "cash flow actions",
		Markers:  []string{"CASH FLOW RECOMMENDATIONS", "CASH FLOW ACTIONS", "RECOMMENDATIONS"},
		JSONKeys: []string{"cash_flow_recommendations", "recommendations"},
		Keywords: []string{"cash", "receivable", "payable", "collect", "invoice", "payment"},
		Sentinel: "Unable to extract cash flow recommendations from the analysis",
	}
	WorkingCapital = ListSpec{
		Name:     "working capital",
		Markers:  []string{"WORKING CAPITAL"},
		JSONKeys: []string{"working_capital_improvements", "working_capital"},
		Keywords: []string{"inventory", "receivable", "payable", "working capital"},
		Sentinel: "Unable to extract working capital improvements from the analysis",
	}
)

// ExtractList runs the strategy chain for spec over text. The first tier that
// yields items wins; when none does the sentinel is returned.
func ExtractList(text string, spec ListSpec) List {
	text = CleanResponse(text)
	limit := spec.Cap
	if limit <= 0 {
		limit = DefaultCap
	}

	tiers := []struct {
		tier Tier
		run  func(string, ListSpec) []string
	}{
		{TierJSON, jsonTier},
		{TierSection, sectionTier},
		{TierKeyword, keywordTier},
	}
	for _, t := range tiers {
		if items := dedupe(t.run(text, spec), limit); len(items) > 0 {
			return List{Items: items, Tier: t.tier}
		}
	}
	return List{Items: []string{spec.Sentinel}, Tier: TierSentinel, Degraded: true}
}

// =============================================================================
// TIERS
// =============================================================================

func jsonTier(text string, spec ListSpec) []string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "{") {
		return nil
	}
	doc, ok := decodeJSON(t)
	if !ok {
		return nil
	}

	wanted := make(map[string]bool, len(spec.JSONKeys))
	for _, k := range spec.JSONKeys {
		wanted[normalizeKey(k)] = true
	}
	var items []string
	for _, v := range findJSONList(doc, wanted) {
		if item, ok := cleanItem(jsonItemText(v)); ok {
			items = append(items, item)
		}
	}
	return items
}

func sectionTier(text string, spec ListSpec) []string {
	var items []string
	in := false
	for _, line := range strings.Split(text, "\n") {
		if h, ok := headerText(line); ok {
			_, numbered := numberedItem(line)
			switch {
			case containsAny(h, spec.Markers):
				in = true
				continue
			case in && (!numbered || containsAny(h, knownHeaders)):
				in = false
				continue
			}
		}
		// Any other non-item line mentioning a marker opens the block too.
		if _, item := listItem(line); !item && containsAny(strings.ToUpper(line), spec.Markers) {
			in = true
			continue
		}
		if !in {
			continue
		}
		if raw, ok := listItem(line); ok {
			if item, ok := cleanItem(raw); ok {
				items = append(items, item)
			}
		}
	}
	return items
}

func keywordTier(text string, spec ListSpec) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		raw, ok := numberedItem(line)
		if !ok {
			continue
		}
		lower := strings.ToLower(raw)
		if !containsAny(lower, spec.Keywords) {
			continue
		}
		if item, ok := cleanItem(raw); ok {
			items = append(items, item)
		}
	}
	return items
}

// =============================================================================
// HELPERS
// =============================================================================

// cleanItem drops echoed format instructions and placeholders.
func cleanItem(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return "", false
	}
	lower := strings.ToLower(s)
	if strings.Contains(s, "MUST") || strings.Contains(lower, "exactly") || strings.Contains(lower, "items") {
		return "", false
	}
	s = PlainText(s)
	if len([]rune(s)) < 3 {
		return "", false
	}
	return s, true
}

func dedupe(items []string, limit int) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, limit)
	for _, it := range items {
		key := strings.ToLower(it)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}

func decodeJSON(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, true
	}
	if repaired, err := jsonrepair.RepairJSON(s); err == nil {
		if err := json.Unmarshal([]byte(repaired), &v); err == nil {
			return v, true
		}
	}
	if err := hjson.Unmarshal([]byte(s), &v); err == nil {
		return v, true
	}
	return nil, false
}

// findJSONList searches objects depth first, keys in sorted order, for the first
// wanted key holding an array.
func findJSONList(v any, wanted map[string]bool) []any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if arr, ok := obj[k].([]any); ok && wanted[normalizeKey(k)] {
			return arr
		}
	}
	for _, k := range keys {
		if arr := findJSONList(obj[k], wanted); arr != nil {
			return arr
		}
	}
	return nil
}

func jsonItemText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, k := range []string{"description", "text", "title", "name", "item", "action", "factor"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
		b, _ := json.Marshal(t)
		return string(b)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func normalizeKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
