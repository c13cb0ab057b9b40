// backend-go/internal/service/summary_test.go
package service

import (
	"testing"
	"time"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usageOn(material string, date time.Time, qty float64) domain.DailyUsage {
	return domain.DailyUsage{Material: material, Date: date, QuantityUsed: qty}
}

func TestBuildUsageSummary(t *testing.T) {
	jan := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	may := time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	summary := BuildUsageSummary([]domain.DailyUsage{
		usageOn("cement", jan, 1000),
		usageOn("cement", may, 500),
		usageOn("cement", jun, 500),
		usageOn("sand", jun, 300),
	})

	require.Len(t, summary.TopMaterials, 2)

	cement := summary.TopMaterials[0]
	assert.Equal(t, "cement", cement.Material)
	assert.Equal(t, 2000.0, cement.TotalUsage)
	// Three distinct calendar months of activity.
	assert.InDelta(t, 2000.0/3, cement.AvgMonthly, 1e-9)
	// January falls outside the trailing three months from June 15.
	assert.Equal(t, 1000.0, cement.Last3Months)
	assert.Equal(t, "2025-06-15", cement.LastDate)

	assert.Equal(t, "sand", summary.TopMaterials[1].Material)
}

func TestBuildUsageSummaryCapsTopMaterials(t *testing.T) {
	date := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	var daily []domain.DailyUsage
	for _, m := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		daily = append(daily, usageOn(m, date, 10))
	}

	summary := BuildUsageSummary(daily)
	assert.Len(t, summary.TopMaterials, summaryTopN)
}

func TestBuildUsageSummaryEmptyInput(t *testing.T) {
	summary := BuildUsageSummary(nil)
	require.NotNil(t, summary)
	assert.Empty(t, summary.TopMaterials)
}
