package parse

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	numberedRe = regexp.MustCompile(`^\s*(?:\*\*)?(\d{1,3})[.)](?:\*\*)?\s+(.+?)\s*$`)
	bulletRe   = regexp.MustCompile(`^\s*[-*•]\s+(.+?)\s*$`)
)

// knownHeaders are the section names any of our prompts ask for. Reaching one of
// them ends the current list block.
var knownHeaders = []string{
	"SUMMARY", "OVERALL", "CONCLUSION", "DETAILED ANALYSIS", "RISK LEVEL",
	"RECOMMENDATION", "CONFIDENCE", "TIME HORIZON", "ESTIMATED SAVINGS",
	"PROJECTED GROWTH", "KEY FINDINGS", "STRENGTHS", "WEAKNESSES", "RISK FACTORS",
	"KEY RISKS", "GROWTH RISKS", "MITIGATION", "OPPORTUNITIES", "STRATEGIES",
	"QUICK WINS", "KEY REASONS", "WORKING CAPITAL", "AREAS OF CONCERN",
}

// numberedItem returns the text of an "N. text" line.
func numberedItem(line string) (string, bool) {
	m := numberedRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// listItem accepts numbered and bulleted lines.
func listItem(line string) (string, bool) {
	if item, ok := numberedItem(line); ok {
		return item, true
	}
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// headerText reports whether line looks like a section header and returns its
// upper-cased label. Numbered lines only count when written in capitals or when
// the label ends with a colon ("1. Strengths:").
func headerText(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if t == "" {
		return "", false
	}

	marked := false
	if strings.HasPrefix(t, "#") {
		t = strings.TrimSpace(strings.TrimLeft(t, "#"))
		marked = true
	}

	if item, ok := numberedItem(t); ok {
		label := strings.Trim(item, "*_: ")
		if !isUpper(label) && !strings.HasSuffix(strings.TrimRight(item, "*_ "), ":") {
			return "", false
		}
		return strings.ToUpper(label), true
	}
	if bulletRe.MatchString(t) {
		return "", false
	}

	if strings.HasPrefix(t, "**") || strings.HasPrefix(t, "__") {
		marked = true
	}
	t = strings.TrimSpace(strings.Trim(t, "*_"))

	label := t
	if i := strings.Index(t, ":"); i >= 0 {
		label = t[:i]
	}
	label = strings.TrimSpace(strings.Trim(label, "*_"))

	switch {
	case marked, strings.HasSuffix(t, ":"), isUpper(label):
		return strings.ToUpper(label), label != ""
	}
	return "", false
}

// isUpper is true when s has at least three letters and none in lower case.
func isUpper(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 3
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
