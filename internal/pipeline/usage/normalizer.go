package usage

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// Column aliases accepted for the required logical columns. Resolution picks
// the first alias present, case- and whitespace-insensitive. The misspelled
// date variant is a known artifact of the historical CSV template and must
// keep working.
var (
	dateAliases     = []string{"Date_of_Materail_Usage", "Date_of_Material_Usage", "date"}
	materialAliases = []string{"Material_Name", "material"}
	quantityAliases = []string{"Quantity_Used", "quantity_used", "quantity"}

	reliabilityAliases = []string{"Supllier_Reliability_Score", "Supplier_Reliability_Score", "supplier_reliability"}
)

// Optional regressor columns. Absent columns behave as constant zero.
var regressorAliases = []struct {
	name    string
	aliases []string
	assign  func(*domain.Regressors, float64)
}{
	{"Weather_Condition", []string{"Weather_Condition"}, func(r *domain.Regressors, v float64) { r.WeatherCondition = v }},
	{"Regional_Risk_Level", []string{"Regional_Risk_Level"}, func(r *domain.Regressors, v float64) { r.RegionalRiskLevel = v }},
	{"Delivery_Delays", []string{"Delivery_Delays"}, func(r *domain.Regressors, v float64) { r.DeliveryDelays = v }},
	{"Average_Delivery_Time_Days", []string{"Average_Delivery_Time_Days"}, func(r *domain.Regressors, v float64) { r.AvgDeliveryTimeDays = v }},
	{"Contractor_Team_Size", []string{"Contractor_Team_Size"}, func(r *domain.Regressors, v float64) { r.ContractorTeamSize = v }},
	{"Number_of_Shifts_Work_Hours", []string{"Number_of_Shifts_Work_Hours"}, func(r *domain.Regressors, v float64) { r.ShiftWorkHours = v }},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"2/1/2006",
}

// Result is the output of a Normalize call.
type Result struct {
	// Daily holds one row per (material, calendar day), quantity summed and
	// regressors averaged, sorted by material then date ascending.
	Daily []domain.DailyUsage
	// DroppedRows counts raw rows discarded for an unparseable date or a
	// missing/negative quantity.
	DroppedRows int
	// Reliability maps material -> mean of the supplier reliability column,
	// populated only when that optional column is present.
	Reliability map[string]float64
	// Materials lists the distinct normalized material keys, sorted.
	Materials []string
}

type dailyKey struct {
	material string
	day      time.Time
}

type dailyAccum struct {
	quantity   float64
	regressors domain.Regressors
	count      int
}

// Normalize maps the raw table onto the canonical usage schema, drops invalid
// rows, and aggregates to one row per (material, day). It is a pure function
// over its inputs; the dropped-row count is surfaced on the result and logged
// for diagnosis, never returned as an error.
func Normalize(header []string, rows [][]string) (*Result, error) {
	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxDate := colIndex(dateAliases...)
	if idxDate < 0 {
		return nil, &domain.SchemaError{Column: "date", Aliases: dateAliases}
	}
	idxMaterial := colIndex(materialAliases...)
	if idxMaterial < 0 {
		return nil, &domain.SchemaError{Column: "material", Aliases: materialAliases}
	}
	idxQuantity := colIndex(quantityAliases...)
	if idxQuantity < 0 {
		return nil, &domain.SchemaError{Column: "quantity_used", Aliases: quantityAliases}
	}
	idxReliability := colIndex(reliabilityAliases...)

	type regressorCol struct {
		idx    int
		assign func(*domain.Regressors, float64)
	}
	regressorCols := make([]regressorCol, 0, len(regressorAliases))
	for _, rc := range regressorAliases {
		regressorCols = append(regressorCols, regressorCol{idx: colIndex(rc.aliases...), assign: rc.assign})
	}

	accum := make(map[dailyKey]*dailyAccum)
	relSum := make(map[string]float64)
	relCount := make(map[string]int)
	dropped := 0

	get := func(record []string, idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	for _, record := range rows {
		day, ok := parseDate(get(record, idxDate))
		if !ok {
			dropped++
			continue
		}

		qty, err := strconv.ParseFloat(strings.ReplaceAll(get(record, idxQuantity), ",", ""), 64)
		if err != nil || qty < 0 {
			dropped++
			continue
		}

		material := strings.ToLower(get(record, idxMaterial))
		if material == "" {
			dropped++
			continue
		}

		var regressors domain.Regressors
		for _, rc := range regressorCols {
			if rc.idx < 0 {
				continue
			}
			if v, err := strconv.ParseFloat(get(record, rc.idx), 64); err == nil {
				rc.assign(&regressors, v)
			}
		}

		if idxReliability >= 0 {
			if v, err := strconv.ParseFloat(get(record, idxReliability), 64); err == nil {
				relSum[material] += v
				relCount[material]++
			}
		}

		key := dailyKey{material: material, day: day}
		a, ok := accum[key]
		if !ok {
			a = &dailyAccum{}
			accum[key] = a
		}
		a.quantity += qty
		a.regressors.WeatherCondition += regressors.WeatherCondition
		a.regressors.RegionalRiskLevel += regressors.RegionalRiskLevel
		a.regressors.DeliveryDelays += regressors.DeliveryDelays
		a.regressors.AvgDeliveryTimeDays += regressors.AvgDeliveryTimeDays
		a.regressors.ContractorTeamSize += regressors.ContractorTeamSize
		a.regressors.ShiftWorkHours += regressors.ShiftWorkHours
		a.count++
	}

	if dropped > 0 {
		log.Warn().Int("dropped_rows", dropped).Msg("usage normalize: invalid rows dropped")
	}

	daily := make([]domain.DailyUsage, 0, len(accum))
	materialSet := make(map[string]struct{})
	for key, a := range accum {
		n := float64(a.count)
		daily = append(daily, domain.DailyUsage{
			Material:     key.material,
			Date:         key.day,
			QuantityUsed: a.quantity,
			Regressors: domain.Regressors{
				WeatherCondition:    a.regressors.WeatherCondition / n,
				RegionalRiskLevel:   a.regressors.RegionalRiskLevel / n,
				DeliveryDelays:      a.regressors.DeliveryDelays / n,
				AvgDeliveryTimeDays: a.regressors.AvgDeliveryTimeDays / n,
				ContractorTeamSize:  a.regressors.ContractorTeamSize / n,
				ShiftWorkHours:      a.regressors.ShiftWorkHours / n,
			},
		})
		materialSet[key.material] = struct{}{}
	}

	sort.Slice(daily, func(i, j int) bool {
		if daily[i].Material != daily[j].Material {
			return daily[i].Material < daily[j].Material
		}
		return daily[i].Date.Before(daily[j].Date)
	})

	materials := make([]string, 0, len(materialSet))
	for m := range materialSet {
		materials = append(materials, m)
	}
	sort.Strings(materials)

	reliability := make(map[string]float64, len(relSum))
	for m, sum := range relSum {
		reliability[m] = sum / float64(relCount[m])
	}

	return &Result{
		Daily:       daily,
		DroppedRows: dropped,
		Reliability: reliability,
		Materials:   materials,
	}, nil
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.TrimPrefix(name, "\uFEFF")
	return columnNameSanitizer.Replace(name)
}
