// backend-go/internal/service/summary.go
package service

import (
	"sort"
	"time"

	"github.com/predichain/backend-go/internal/domain"
)

// summaryTopN caps how many materials the usage digest carries.
const summaryTopN = 5

// BuildUsageSummary digests normalized daily usage into the per-material
// stats that feed narrative risk analysis: total usage, average per calendar
// month, the trailing-three-month total, and the last observed date.
func BuildUsageSummary(daily []domain.DailyUsage) *domain.UsageSummary {
	type accum struct {
		total    float64
		months   map[string]struct{}
		lastDate time.Time
	}

	byMaterial := make(map[string]*accum)
	var lastOverall time.Time
	for _, d := range daily {
		a, ok := byMaterial[d.Material]
		if !ok {
			a = &accum{months: make(map[string]struct{})}
			byMaterial[d.Material] = a
		}
		a.total += d.QuantityUsed
		a.months[d.Date.Format("2006-01")] = struct{}{}
		if d.Date.After(a.lastDate) {
			a.lastDate = d.Date
		}
		if d.Date.After(lastOverall) {
			lastOverall = d.Date
		}
	}

	cutoff := lastOverall.AddDate(0, -3, 0)
	recent := make(map[string]float64)
	for _, d := range daily {
		if d.Date.After(cutoff) {
			recent[d.Material] += d.QuantityUsed
		}
	}

	summaries := make([]domain.MaterialSummary, 0, len(byMaterial))
	for material, a := range byMaterial {
		summaries = append(summaries, domain.MaterialSummary{
			Material:    material,
			TotalUsage:  a.total,
			AvgMonthly:  a.total / float64(len(a.months)),
			Last3Months: recent[material],
			LastDate:    a.lastDate.Format("2006-01-02"),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalUsage != summaries[j].TotalUsage {
			return summaries[i].TotalUsage > summaries[j].TotalUsage
		}
		return summaries[i].Material < summaries[j].Material
	})
	if len(summaries) > summaryTopN {
		summaries = summaries[:summaryTopN]
	}

	return &domain.UsageSummary{TopMaterials: summaries}
}
