package parse

import (
	"regexp"
	"strings"
)

// Classification defaults.
const (
	DefaultRating      = "Hold"
	DefaultConfidence  = "Moderate"
	DefaultTimeHorizon = "Medium-term (1-3 years)"
)

const (
	horizonShort = "Short-term (< 1 year)"
	horizonLong  = "Long-term (3+ years)"
)

var (
	ratingRe     = regexp.MustCompile(`(?i)\b(buy|hold|sell)\b`)
	riskLevelRe  = regexp.MustCompile(`(?i)\b(high|medium|moderate|low)\b`)
	riskPhraseRe = regexp.MustCompile(`(?i)\b(high|medium|moderate|low)[ -]risk\b`)
)

// InvestmentRating returns Buy, Hold or Sell. The "RECOMMENDATION:" line is
// consulted first, then the first rating word anywhere in the text.
func InvestmentRating(text string) string {
	text = CleanResponse(text)
	if v := LabeledBlock(text, "RECOMMENDATION", "RATING"); v != "" {
		if r := firstRating(firstLine(v)); r != "" {
			return r
		}
	}
	if r := firstRating(text); r != "" {
		return r
	}
	return DefaultRating
}

func firstRating(s string) string {
	m := ratingRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
}

// ConfidenceLevel returns High, Moderate or Low.
func ConfidenceLevel(text string) string {
	text = CleanResponse(text)
	if v := strings.ToLower(firstLine(LabeledBlock(text, "CONFIDENCE"))); v != "" {
		switch {
		case strings.Contains(v, "high"):
			return "High"
		case strings.Contains(v, "low"):
			return "Low"
		case strings.Contains(v, "moderate"), strings.Contains(v, "medium"):
			return "Moderate"
		}
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "high confidence"):
		return "High"
	case strings.Contains(lower, "low confidence"):
		return "Low"
	}
	return DefaultConfidence
}

// TimeHorizon returns a short, medium or long-term horizon label.
func TimeHorizon(text string) string {
	text = CleanResponse(text)
	for _, s := range []string{firstLine(LabeledBlock(text, "TIME HORIZON")), text} {
		lower := strings.ToLower(s)
		switch {
		case strings.Contains(lower, "short-term"), strings.Contains(lower, "short term"):
			return horizonShort
		case strings.Contains(lower, "long-term"), strings.Contains(lower, "long term"):
			return horizonLong
		case strings.Contains(lower, "medium-term"), strings.Contains(lower, "medium term"):
			return DefaultTimeHorizon
		}
	}
	return DefaultTimeHorizon
}

// RiskLevel returns the risk level the text reports (High, Medium or Low), or ""
// when it reports none.
func RiskLevel(text string) string {
	text = CleanResponse(text)
	if v := firstLine(LabeledBlock(text, "RISK LEVEL")); v != "" {
		if m := riskLevelRe.FindStringSubmatch(v); m != nil {
			return normalizeRisk(m[1])
		}
	}
	if m := riskPhraseRe.FindStringSubmatch(text); m != nil {
		return normalizeRisk(m[1])
	}
	return ""
}

func normalizeRisk(s string) string {
	switch strings.ToLower(s) {
	case "high":
		return "High"
	case "low":
		return "Low"
	default:
		return "Medium"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
