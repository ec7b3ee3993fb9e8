package parse

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	amountRe  = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•]|\d{1,2}[.)])?[ \t]*\**([A-Za-z][A-Za-z0-9 &/'\-]*?)\**[ \t]*:[ \t]*\**[ \t]*(-)?[ \t]*\$[ \t]*(\()?[ \t]*(-)?([\d,]*\d(?:\.\d+)?)`)
	percentRe = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•]|\d{1,2}[.)])?[ \t]*\**([A-Za-z][A-Za-z0-9 &/'\-]*?)\**[ \t]*:[ \t]*\**[ \t]*([+-]?[\d,]*\d(?:\.\d+)?)[ \t]*%`)
)

// ExtractAmounts captures "Label: $1,234.56" lines. A leading minus or parentheses
// make the amount negative. Labels keep their original spelling; the first
// occurrence of a label wins.
func ExtractAmounts(text string) map[string]float64 {
	out := map[string]float64{}
	for _, m := range amountRe.FindAllStringSubmatch(CleanResponse(text), -1) {
		label := strings.TrimSpace(m[1])
		if _, seen := out[label]; seen || label == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[5], ",", ""), 64)
		if err != nil {
			continue
		}
		if m[2] != "" || m[3] != "" || m[4] != "" {
			v = -v
		}
		out[label] = v
	}
	return out
}

// ExtractPercentages captures "Label: 12.5%" lines. The first occurrence of a label wins.
func ExtractPercentages(text string) map[string]float64 {
	out := map[string]float64{}
	for _, m := range percentRe.FindAllStringSubmatch(CleanResponse(text), -1) {
		label := strings.TrimSpace(m[1])
		if _, seen := out[label]; seen || label == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			continue
		}
		out[label] = v
	}
	return out
}

// Lookup finds a value by label, case-insensitively. Exact matches are preferred;
// otherwise the first label (in sorted order) containing one of keys is used.
func Lookup(values map[string]float64, keys ...string) (float64, bool) {
	labels := make([]string, 0, len(values))
	for l := range values {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	for _, k := range keys {
		for _, l := range labels {
			if strings.EqualFold(l, k) {
				return values[l], true
			}
		}
	}
	for _, k := range keys {
		kl := strings.ToLower(k)
		for _, l := range labels {
			if strings.Contains(strings.ToLower(l), kl) {
				return values[l], true
			}
		}
	}
	return 0, false
}
