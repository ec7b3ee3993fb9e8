package calc

import (
	"math"

	"financial_insights/pkg/models"
)

// BenfordDistribution is the expected frequency of leading digits 1-9 (index 0 unused).
var BenfordDistribution = [10]float64{0, 0.30103, 0.17609, 0.12494, 0.09691, 0.07918, 0.06695, 0.05799, 0.05115, 0.04576}

// First-digit conformity levels.
const (
	DigitsConforming    = "Close Conformity"
	DigitsMarginal      = "Marginal Conformity"
	DigitsNonconforming = "Nonconforming"
)

// MinDigitSample is the smallest number of amounts worth testing.
const MinDigitSample = 10

// DigitTest is the leading-digit (Benford) profile of a document's amounts.
type DigitTest struct {
	Counts      [10]int     `json:"counts"`
	Frequencies [10]float64 `json:"frequencies"`
	Count       int         `json:"count"`
	MAD         float64     `json:"mad"` // mean absolute deviation from BenfordDistribution
	Level       string      `json:"level"`
	Flagged     bool        `json:"flagged"`
}

// FirstDigitTest profiles the leading digits of all amounts with |amount| >= 1.
// ok is false when fewer than MinDigitSample amounts qualify.
// MAD thresholds: up to 0.010 conforming, up to 0.015 marginal, above that nonconforming.
func FirstDigitTest(records []models.FinancialRecord) (DigitTest, bool) {
	var t DigitTest
	for _, r := range records {
		d := leadingDigit(math.Abs(r.Amount.InexactFloat64()))
		if d == 0 {
			continue
		}
		t.Counts[d]++
		t.Count++
	}
	if t.Count < MinDigitSample {
		return DigitTest{}, false
	}

	var sumDiff float64
	for d := 1; d <= 9; d++ {
		t.Frequencies[d] = float64(t.Counts[d]) / float64(t.Count)
		sumDiff += math.Abs(t.Frequencies[d] - BenfordDistribution[d])
	}
	t.MAD = Round(sumDiff/9, 4)

	switch {
	case t.MAD > 0.015:
		t.Level, t.Flagged = DigitsNonconforming, true
	case t.MAD > 0.010:
		t.Level = DigitsMarginal
	default:
		t.Level = DigitsConforming
	}
	return t, true
}

// leadingDigit returns the first significant digit of v, 0 for v < 1.
func leadingDigit(v float64) int {
	if v < 1 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	return int(v)
}
