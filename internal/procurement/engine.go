package procurement

import (
	"math"
	"sort"
	"time"

	"github.com/predichain/backend-go/internal/domain"
)

// DefaultSafetyStockFraction keeps 10% of forecasted need as safety stock.
const DefaultSafetyStockFraction = 0.10

// minReliabilityFraction floors the reliability divisor so a near-zero score
// cannot blow the order quantity up without bound.
const minReliabilityFraction = 0.1

// Params carries the project context applied uniformly across every forecast
// month of a recommendation request.
type Params struct {
	LeadTimeDays        int
	CurrentInventory    float64
	SafetyStockFraction float64 // 0 means DefaultSafetyStockFraction

	// SupplierReliability is the user-supplied current reliability percent.
	// Nil means not provided.
	SupplierReliability *float64
	// HistoricalReliability maps material -> mean reliability percent derived
	// from the uploaded history. Missing materials fall back to
	// SupplierReliability, then to 100.
	HistoricalReliability map[string]float64
}

// Plan is the full recommendation output. BulkOrders is empty, never nil,
// when nothing aggregates.
type Plan struct {
	Orders     []domain.OrderRecommendation `json:"recommendations"`
	BulkOrders []domain.BulkOrder           `json:"bulk_orders"`
}

// Recommend converts a monthly forecast into order recommendations.
//
// Per month: need = yhat + yhat*safetyFraction, inflated by dividing through
// the reliability fraction (lower reliability means ordering more to cover
// expected shrinkage and delay). The on-hand inventory offsets the nearest
// forecast month of each material once; it is not re-credited across later
// months. Months whose resulting quantity is zero are not emitted. The order
// date is the first day of the demand month minus lead time and is allowed to
// be in the past, meaning the caller is already late.
func Recommend(forecast []domain.MonthlyForecast, params Params) (*Plan, error) {
	frac := params.SafetyStockFraction
	if frac <= 0 {
		frac = DefaultSafetyStockFraction
	}

	for _, mf := range forecast {
		if mf.Material == "" {
			return nil, &domain.PolicyInputError{Material: mf.Material, Field: "material"}
		}
		if mf.MonthStart.IsZero() {
			return nil, &domain.PolicyInputError{Material: mf.Material, Field: "forecast_month_start"}
		}
	}

	rows := append([]domain.MonthlyForecast(nil), forecast...)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Material != rows[j].Material {
			return rows[i].Material < rows[j].Material
		}
		return rows[i].MonthStart.Before(rows[j].MonthStart)
	})

	orders := make([]domain.OrderRecommendation, 0, len(rows))
	inventoryApplied := make(map[string]bool)

	for _, mf := range rows {
		yhat := math.Max(0, mf.Yhat)
		reliability := effectiveReliability(mf.Material, params)

		need := yhat + yhat*frac
		relFrac := math.Max(reliability/100.0, minReliabilityFraction)
		need = math.Round(need / relFrac)

		if !inventoryApplied[mf.Material] {
			need -= params.CurrentInventory
			inventoryApplied[mf.Material] = true
		}

		qty := int(math.Round(math.Max(0, need)))
		if qty == 0 {
			continue
		}

		orders = append(orders, domain.OrderRecommendation{
			Material:            mf.Material,
			MonthStart:          mf.MonthStart,
			ForecastedDemand:    yhat,
			Quantity:            qty,
			OrderDate:           mf.MonthStart.AddDate(0, 0, -params.LeadTimeDays),
			SupplierReliability: reliability,
		})
	}

	return &Plan{Orders: orders, BulkOrders: aggregateBulk(orders)}, nil
}

// effectiveReliability resolves the reliability percent for a material:
// historical average blended 50/50 with the user-supplied value when both
// exist, otherwise whichever is present, defaulting to 100.
func effectiveReliability(material string, params Params) float64 {
	hist, hasHist := params.HistoricalReliability[material]
	switch {
	case hasHist && params.SupplierReliability != nil:
		return (hist + *params.SupplierReliability) / 2
	case hasHist:
		return hist
	case params.SupplierReliability != nil:
		return *params.SupplierReliability
	default:
		return 100
	}
}

// aggregateBulk groups emitted recommendations by the calendar month of the
// recommended order date (not the demand month) so purchase orders landing in
// the same month can be batched across materials.
func aggregateBulk(orders []domain.OrderRecommendation) []domain.BulkOrder {
	totals := make(map[string]int)
	for _, o := range orders {
		totals[OrderMonthOf(o.OrderDate)] += o.Quantity
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	bulk := make([]domain.BulkOrder, 0, len(months))
	for _, m := range months {
		bulk = append(bulk, domain.BulkOrder{OrderMonth: m, Quantity: totals[m]})
	}
	return bulk
}

// OrderMonthOf exposes the bulk aggregation key for a given order date.
func OrderMonthOf(orderDate time.Time) string {
	return orderDate.Format("2006-01")
}
