package parse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const riskResponse = `RISK LEVEL: High

RISK FACTORS (EXACTLY 5):
1. Negative net income of $(10,000) - Severity: High
2. Debt-to-equity of 3.2 exceeds industry norms - Severity: High
3. Current ratio below 1.0 signals liquidity pressure - Severity: Medium
4. Revenue concentrated in two customers - Severity: Medium
5. Rising interest costs - Severity: Low

MITIGATION STRATEGIES (EXACTLY 5):
1. Cut discretionary spending by 15%
2. Refinance short-term debt
3. Negotiate longer supplier terms
4. Diversify the customer base
5. Build a three-month cash reserve

OVERALL ASSESSMENT:
The company is under financial stress.`

func TestExtractList_SectionTier(t *testing.T) {
	got := ExtractList(riskResponse, RiskFactors)

	assert.Equal(t, TierSection, got.Tier)
	assert.False(t, got.Degraded)
	assert.Equal(t, []string{
		"Negative net income of $(10,000) - Severity: High",
		"Debt-to-equity of 3.2 exceeds industry norms - Severity: High",
		"Current ratio below 1.0 signals liquidity pressure - Severity: Medium",
		"Revenue concentrated in two customers - Severity: Medium",
		"Rising interest costs - Severity: Low",
	}, got.Items)

	mit := ExtractList(riskResponse, MitigationStrategies)
	require.Len(t, mit.Items, 5)
	assert.Equal(t, "Cut discretionary spending by 15%", mit.Items[0])
	assert.Equal(t, "Build a three-month cash reserve", mit.Items[4])
}

func TestExtractList_EmptyReturnsSentinel(t *testing.T) {
	for _, spec := range []ListSpec{RiskFactors, Strengths, Opportunities, KeyFindings} {
		got := ExtractList("", spec)
		assert.Equal(t, []string{spec.Sentinel}, got.Items)
		assert.True(t, got.Degraded)
		assert.Equal(t, TierSentinel, got.Tier)
	}
}

func TestExtractList_KeywordFallback(t *testing.T) {
	text := `Here is what I found.
1. The company carries significant debt relative to equity
2. Staff morale appears good
3. Revenue decline in the last quarter is a risk`

	got := ExtractList(text, RiskFactors)

	assert.Equal(t, TierKeyword, got.Tier)
	assert.Equal(t, []string{
		"The company carries significant debt relative to equity",
		"Revenue decline in the last quarter is a risk",
	}, got.Items)
}

func TestExtractList_KeywordFallbackIsDeterministic(t *testing.T) {
	text := "Nothing useful here.\n1. Debt is rising\n2. Weather was nice"
	first := ExtractList(text, RiskFactors)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, ExtractList(text, RiskFactors))
	}
}

func TestExtractList_CapsAtFive(t *testing.T) {
	var b strings.Builder
	b.WriteString("RECOMMENDATIONS:\n")
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&b, "%d. Reduce cost center %d\n", i, i)
	}

	got := ExtractList(b.String(), Recommendations)

	assert.Len(t, got.Items, 5)
	assert.Equal(t, "Reduce cost center 1", got.Items[0])

	// Keyword tier honours the cap too.
	got = ExtractList(strings.Replace(b.String(), "RECOMMENDATIONS:\n", "", 1), Recommendations)
	assert.Equal(t, TierKeyword, got.Tier)
	assert.Len(t, got.Items, 5)
}

func TestExtractList_DropsLeakedInstructions(t *testing.T) {
	text := `STRENGTHS (EXACTLY 3):
1. You MUST list three strengths
2. [strength]
3. Healthy 30% profit margin
4. List exactly 3 items
5. **Strong** liquidity position
6. healthy 30% PROFIT margin

WEAKNESSES (EXACTLY 3):
1. Thin cash reserves`

	got := ExtractList(text, Strengths)

	assert.Equal(t, []string{"Healthy 30% profit margin", "Strong liquidity position"}, got.Items)
}

func TestExtractList_StopsAtNextHeader(t *testing.T) {
	text := `**Strengths:**
- Strong revenue growth
- Low leverage
**Weaknesses:**
- High expense ratio`

	assert.Equal(t, []string{"Strong revenue growth", "Low leverage"}, ExtractList(text, Strengths).Items)
	assert.Equal(t, []string{"High expense ratio"}, ExtractList(text, Weaknesses).Items)
}

func TestExtractList_HeaderShapes(t *testing.T) {
	tests := []struct {
		name string
		text string
		spec ListSpec
		want []string
	}{
		{
			name: "numbered header with colon",
			text: "1. Strengths:\n- Strong margins of 30%\n- Solid cash base\n2. Weaknesses:\n- Thin reserves",
			spec: Strengths,
			want: []string{"Strong margins of 30%", "Solid cash base"},
		},
		{
			name: "numbered header ends the previous block",
			text: "1. Strengths:\n- Strong margins of 30%\n2. Weaknesses:\n- Thin reserves",
			spec: Weaknesses,
			want: []string{"Thin reserves"},
		},
		{
			name: "mixed case prose mentioning the header",
			text: "Here are the risk factors identified\n1. Customer concentration\n2. Supplier dependence",
			spec: RiskFactors,
			want: []string{"Customer concentration", "Supplier dependence"},
		},
		{
			name: "mixed case header without colon",
			text: "Key Strengths\n1. Recurring contracts\n2. Low churn",
			spec: Strengths,
			want: []string{"Recurring contracts", "Low churn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractList(tt.text, tt.spec)
			assert.Equal(t, TierSection, got.Tier)
			assert.Equal(t, tt.want, got.Items)
		})
	}
}

func TestExtractList_JSONTier(t *testing.T) {
	text := "```json\n{\"analysis\": {\"risk_factors\": [\"High leverage\", {\"description\": \"Thin margins\"}, \"high leverage\"],}}\n```"

	got := ExtractList(text, RiskFactors)

	assert.Equal(t, TierJSON, got.Tier)
	assert.Equal(t, []string{"High leverage", "Thin margins"}, got.Items)
}

func TestExtractList_HTMLResponse(t *testing.T) {
	text := `<p><b>RISK FACTORS:</b></p><ol><li>Heavy debt load</li><li>Declining sales</li></ol><p>SUMMARY: risky</p>`

	got := ExtractList(text, RiskFactors)

	assert.Equal(t, []string{"Heavy debt load", "Declining sales"}, got.Items)
}

func TestExtractList_ThinkBlockIgnored(t *testing.T) {
	text := "<think>\nRISK FACTORS:\n1. draft risk\n</think>\nKEY RISKS:\n1. Currency exposure"

	assert.Equal(t, []string{"Currency exposure"}, ExtractList(text, RiskFactors).Items)
}
