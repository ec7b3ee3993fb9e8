package calc

import (
	"testing"

	"financial_insights/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstDigitTest(t *testing.T) {
	// Amounts following the expected distribution closely.
	var records []models.FinancialRecord
	for d, n := range map[int64]int{1: 30, 2: 18, 3: 12, 4: 10, 5: 8, 6: 7, 7: 6, 8: 5, 9: 4} {
		for i := 0; i < n; i++ {
			records = append(records, line(models.CategoryExpense, "", "x", d*1000+int64(i)))
		}
	}

	got, ok := FirstDigitTest(records)

	require.True(t, ok)
	assert.Equal(t, 100, got.Count)
	assert.Equal(t, 30, got.Counts[1])
	assert.Equal(t, DigitsConforming, got.Level)
	assert.False(t, got.Flagged)
}

func TestFirstDigitTest_Nonconforming(t *testing.T) {
	var records []models.FinancialRecord
	for i := 0; i < 20; i++ {
		records = append(records, line(models.CategoryExpense, "", "x", 9000+int64(i)))
	}

	got, ok := FirstDigitTest(records)

	require.True(t, ok)
	assert.Equal(t, 20, got.Counts[9])
	assert.Equal(t, DigitsNonconforming, got.Level)
	assert.True(t, got.Flagged)
}

func TestFirstDigitTest_SmallSample(t *testing.T) {
	records := []models.FinancialRecord{
		line(models.CategoryRevenue, "", "a", 100),
		line(models.CategoryRevenue, "", "b", 0),
	}
	_, ok := FirstDigitTest(records)
	assert.False(t, ok)
}

func TestLeadingDigit(t *testing.T) {
	assert.Equal(t, 1, leadingDigit(1))
	assert.Equal(t, 4, leadingDigit(4321.5))
	assert.Equal(t, 9, leadingDigit(99999))
	assert.Equal(t, 0, leadingDigit(0.5))
}
