package calc

import (
	"testing"

	"financial_insights/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariance(t *testing.T) {
	assert.InDelta(t, 50.0, Variance(15, 10), 1e-9)
	assert.InDelta(t, -20.0, Variance(8, 10), 1e-9)
	assert.Equal(t, 0.0, Variance(8, 0))
}

func TestPerformanceRating(t *testing.T) {
	tests := []struct {
		variance float64
		want     string
	}{
		{25.1, PerfWellAbove},
		{25, PerfAbove},
		{10.1, PerfAbove},
		{10, PerfAt},
		{-10, PerfAt},
		{-10.1, PerfBelow},
		{-25, PerfBelow},
		{-25.1, PerfWellBelow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PerformanceRating(tt.variance), "variance %v", tt.variance)
	}
}

func TestPercentile_ZScore(t *testing.T) {
	e := models.BenchmarkEntry{IndustryAverage: 10, IndustryMedian: 12}

	assert.Equal(t, 50.0, Percentile(10, e, PercentileZScore))
	// stddev proxy = 1, one sigma above the mean
	assert.Equal(t, 84.1, Percentile(11, e, PercentileZScore))
	assert.Equal(t, 15.9, Percentile(9, e, PercentileZScore))
	assert.Equal(t, 100.0, Percentile(1000, e, PercentileZScore))
	assert.Equal(t, 0.0, Percentile(-1000, e, PercentileZScore))
}

func TestPercentile_ZeroSpread(t *testing.T) {
	e := models.BenchmarkEntry{IndustryAverage: 10, IndustryMedian: 10}

	assert.Equal(t, 50.0, Percentile(10, e, PercentileZScore))
	assert.Equal(t, 75.0, Percentile(11, e, PercentileZScore))
	assert.Equal(t, 25.0, Percentile(9, e, PercentileZScore))
}

func TestPercentile_Quartile(t *testing.T) {
	e := models.BenchmarkEntry{IndustryAverage: 11, IndustryMedian: 10, Percentile25: 8, Percentile75: 14}

	assert.Equal(t, 50.0, Percentile(10, e, PercentileQuartile))
	assert.Equal(t, 25.0, Percentile(8, e, PercentileQuartile))
	assert.Equal(t, 62.5, Percentile(12, e, PercentileQuartile))
	assert.Equal(t, 0.0, Percentile(-50, e, PercentileQuartile))

	// Degenerate quartiles fall back to the z-score method.
	flat := models.BenchmarkEntry{IndustryAverage: 10, IndustryMedian: 10}
	assert.Equal(t, 75.0, Percentile(11, flat, PercentileQuartile))
}

func TestCompareToBenchmarks(t *testing.T) {
	s := Summary{Revenue: 100000, Expenses: 70000, NetIncome: 30000, Assets: 200000, Liabilities: 100000, Equity: 100000}
	r := Ratios(s)
	benchmarks := map[string]models.BenchmarkEntry{
		ProfitMargin: {MetricName: ProfitMargin, IndustryAverage: 20, IndustryMedian: 18},
		CurrentRatio: {MetricName: CurrentRatio, IndustryAverage: 2, IndustryMedian: 2},
		DebtToEquity: {MetricName: DebtToEquity, IndustryAverage: 2, IndustryMedian: 1.8},
	}

	got := CompareToBenchmarks(s, r, benchmarks, PercentileZScore)

	require.Len(t, got, 3)
	assert.Equal(t, CurrentRatio, got[0].MetricName)
	assert.Equal(t, PerfAt, got[0].PerformanceRating)
	assert.Equal(t, DebtToEquity, got[1].MetricName)
	assert.Equal(t, -50.0, got[1].Variance)
	assert.Equal(t, PerfWellBelow, got[1].PerformanceRating)
	assert.Equal(t, ProfitMargin, got[2].MetricName)
	assert.Equal(t, 30.0, got[2].CompanyValue)
	assert.Equal(t, 50.0, got[2].Variance)
	assert.Equal(t, PerfWellAbove, got[2].PerformanceRating)

	score := CompetitiveScore(got)
	assert.Equal(t, 50.0, score) // (1*100 + 1*50) / 3
	assert.Equal(t, PositionAverage, CompetitivePosition(score))
}

func TestCompetitiveScore_NoBenchmarks(t *testing.T) {
	got := CompareToBenchmarks(Summary{}, RatioSet{}, map[string]models.BenchmarkEntry{}, PercentileZScore)
	assert.Empty(t, got)
	assert.Equal(t, 0.0, CompetitiveScore(got))
	assert.Equal(t, 0.0, CompetitiveScore(nil))
}

func TestCompetitivePosition(t *testing.T) {
	assert.Equal(t, PositionLeader, CompetitivePosition(80))
	assert.Equal(t, PositionAboveAverage, CompetitivePosition(79.9))
	assert.Equal(t, PositionAboveAverage, CompetitivePosition(60))
	assert.Equal(t, PositionAverage, CompetitivePosition(40))
	assert.Equal(t, PositionBelowAverage, CompetitivePosition(20))
	assert.Equal(t, PositionLaggard, CompetitivePosition(19.99))
}
