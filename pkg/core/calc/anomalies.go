package calc

import (
	"math"
	"sort"

	"financial_insights/pkg/models"
)

// Anomaly is a record whose amount sits far from its category mean.
type Anomaly struct {
	Record models.FinancialRecord `json:"record"`
	Mean   float64                `json:"mean"`
	ZScore float64                `json:"z_score"`
}

// DetectAnomalies flags records deviating more than threshold standard deviations from
// the mean of their category. Categories with fewer than three records are skipped.
// Results are ordered by descending |z|.
func DetectAnomalies(records []models.FinancialRecord, threshold float64) []Anomaly {
	byCategory := make(map[models.Category][]models.FinancialRecord)
	for _, r := range records {
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	var out []Anomaly
	for _, group := range byCategory {
		if len(group) < 3 {
			continue
		}

		var sum float64
		for _, r := range group {
			sum += r.Amount.InexactFloat64()
		}
		mean := sum / float64(len(group))

		var sq float64
		for _, r := range group {
			d := r.Amount.InexactFloat64() - mean
			sq += d * d
		}
		stdDev := math.Sqrt(sq / float64(len(group)))
		if stdDev == 0 {
			continue
		}

		for _, r := range group {
			z := (r.Amount.InexactFloat64() - mean) / stdDev
			if math.Abs(z) > threshold {
				out = append(out, Anomaly{Record: r, Mean: Round(mean, 2), ZScore: Round(z, 2)})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		zi, zj := math.Abs(out[i].ZScore), math.Abs(out[j].ZScore)
		if zi != zj {
			return zi > zj
		}
		return out[i].Record.AccountName < out[j].Record.AccountName
	})
	return out
}
