package calc

import (
	"math"
	"sort"

	"financial_insights/pkg/models"
)

// =============================================================================
// INDUSTRY BENCHMARKING
// =============================================================================

// Performance ratings, best to worst.
const (
	PerfWellAbove = "Well Above Average"
	PerfAbove     = "Above Average"
	PerfAt        = "At Industry Average"
	PerfBelow     = "Below Average"
	PerfWellBelow = "Well Below Average"
)

// Competitive positions, best to worst.
const (
	PositionLeader       = "Leader"
	PositionAboveAverage = "Above Average"
	PositionAverage      = "Average"
	PositionBelowAverage = "Below Average"
	PositionLaggard      = "Laggard"
	PositionUnknown      = "Insufficient Data"
)

// PercentileMethod selects how a company value is placed inside the industry distribution.
type PercentileMethod string

const (
	// PercentileZScore uses a normal approximation with |median - average| * 0.5 as the
	// standard deviation. It is the historical behavior and the default.
	PercentileZScore PercentileMethod = "zscore"
	// PercentileQuartile interpolates linearly between the 25th, 50th and 75th percentiles.
	PercentileQuartile PercentileMethod = "quartile"
)

// Variance is the percentage difference from the industry average, 0 when the average is 0.
func Variance(companyValue, industryAverage float64) float64 {
	return safeDiv(companyValue-industryAverage, industryAverage) * 100
}

// PerformanceRating buckets a variance percentage.
func PerformanceRating(variance float64) string {
	switch {
	case variance > 25:
		return PerfWellAbove
	case variance > 10:
		return PerfAbove
	case variance >= -10:
		return PerfAt
	case variance >= -25:
		return PerfBelow
	default:
		return PerfWellBelow
	}
}

// Percentile places companyValue in the industry distribution, clamped to [0,100].
func Percentile(companyValue float64, e models.BenchmarkEntry, method PercentileMethod) float64 {
	if method == PercentileQuartile {
		if p, ok := quartilePercentile(companyValue, e); ok {
			return p
		}
	}
	return zScorePercentile(companyValue, e)
}

func zScorePercentile(v float64, e models.BenchmarkEntry) float64 {
	stdDev := math.Abs(e.IndustryMedian-e.IndustryAverage) * 0.5
	if stdDev == 0 {
		switch {
		case v > e.IndustryAverage:
			return 75
		case v < e.IndustryAverage:
			return 25
		default:
			return 50
		}
	}
	z := (v - e.IndustryAverage) / stdDev
	p := 50 * (1 + math.Erf(z/math.Sqrt2))
	return clampFloat(Round(p, 1), 0, 100)
}

func quartilePercentile(v float64, e models.BenchmarkEntry) (float64, bool) {
	p25, p50, p75 := e.Percentile25, e.IndustryMedian, e.Percentile75
	if !(p25 < p50 && p50 < p75) {
		return 0, false
	}

	var p float64
	switch {
	case v <= p25:
		p = 25 - (p25-v)/(p50-p25)*25
	case v <= p50:
		p = 25 + (v-p25)/(p50-p25)*25
	case v <= p75:
		p = 50 + (v-p50)/(p75-p50)*25
	default:
		p = 75 + (v-p75)/(p75-p50)*25
	}
	return clampFloat(Round(p, 1), 0, 100), true
}

// CompareToBenchmarks builds one comparison per benchmark metric, ordered by metric name.
func CompareToBenchmarks(s Summary, r RatioSet, benchmarks map[string]models.BenchmarkEntry, method PercentileMethod) []models.BenchmarkComparison {
	names := make([]string, 0, len(benchmarks))
	for name := range benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.BenchmarkComparison, 0, len(names))
	for _, name := range names {
		e := benchmarks[name]
		metric := e.MetricName
		if metric == "" {
			metric = name
		}
		value := MetricValue(metric, s, r)
		variance := Variance(value, e.IndustryAverage)

		out = append(out, models.BenchmarkComparison{
			MetricName:        metric,
			CompanyValue:      Round(value, 2),
			IndustryAverage:   e.IndustryAverage,
			IndustryMedian:    e.IndustryMedian,
			Variance:          Round(variance, 2),
			PerformanceRating: PerformanceRating(variance),
			Percentile:        Percentile(value, e, method),
		})
	}
	return out
}

// CompetitiveScore weighs above-average metrics at 100 and average ones at 50.
// It is 0 when there is nothing to compare.
func CompetitiveScore(comparisons []models.BenchmarkComparison) float64 {
	if len(comparisons) == 0 {
		return 0
	}

	var above, middle int
	for _, c := range comparisons {
		switch c.PerformanceRating {
		case PerfWellAbove, PerfAbove:
			above++
		case PerfAt:
			middle++
		}
	}
	return Round(float64(above*100+middle*50)/float64(len(comparisons)), 2)
}

// CompetitivePosition maps a competitive score to a tier.
func CompetitivePosition(score float64) string {
	switch {
	case score >= 80:
		return PositionLeader
	case score >= 60:
		return PositionAboveAverage
	case score >= 40:
		return PositionAverage
	case score >= 20:
		return PositionBelowAverage
	default:
		return PositionLaggard
	}
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
