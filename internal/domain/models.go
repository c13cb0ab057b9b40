// backend-go/internal/domain/models.go
package domain

import "time"

// Regressors holds the optional numeric context columns that can accompany a
// usage record. Absent columns default to zero so downstream code can always
// address every field.
type Regressors struct {
	WeatherCondition    float64 `json:"weather_condition"`
	RegionalRiskLevel   float64 `json:"regional_risk_level"`
	DeliveryDelays      float64 `json:"delivery_delays"`
	AvgDeliveryTimeDays float64 `json:"average_delivery_time_days"`
	ContractorTeamSize  float64 `json:"contractor_team_size"`
	ShiftWorkHours      float64 `json:"number_of_shifts_work_hours"`
}

// UsageRecord is a single validated row from an uploaded usage log.
type UsageRecord struct {
	Date         time.Time
	Material     string
	QuantityUsed float64
	Regressors   Regressors
}

// DailyUsage is the aggregate of all UsageRecords for one (material, day):
// quantity summed, regressors averaged.
type DailyUsage struct {
	Material     string     `json:"material"`
	Date         time.Time  `json:"date"`
	QuantityUsed float64    `json:"quantity_used"`
	Regressors   Regressors `json:"regressors"`
}

// MonthlyForecast is one month of predicted demand for a material.
// Yhat is the sum of the daily point estimates inside the month; the bounds
// are the mean of the daily bounds. Yhat is clamped to zero by the forecast
// adapter before it reaches any consumer.
type MonthlyForecast struct {
	Material   string    `json:"material"`
	MonthStart time.Time `json:"forecast_month_start"`
	Yhat       float64   `json:"yhat"`
	YhatLower  float64   `json:"yhat_lower"`
	YhatUpper  float64   `json:"yhat_upper"`
}

// ProjectContext carries the scalar per-request project fields that apply
// uniformly to every forecast month of a recommendation request.
type ProjectContext struct {
	LeadTimeDays               int     `json:"lead_time_days"`
	CurrentInventory           float64 `json:"current_inventory"`
	SupplierReliabilityPercent *float64 `json:"supplier_reliability,omitempty"`
	DeliveryTimeDays           float64 `json:"delivery_time_days"`
	ContractorTeamSize         int     `json:"contractor_team_size"`
	ProjectBudget              float64 `json:"project_budget"`
	Weather                    string  `json:"weather"`
	RegionRisk                 string  `json:"region_risk"`
	Notes                      string  `json:"notes"`
	ProjectName                string  `json:"project_name"`
	ProjectType                string  `json:"project_type"`
	Location                   string  `json:"location"`
	StartDate                  string  `json:"start_date"`
	EndDate                    string  `json:"end_date"`
}

// OrderRecommendation is one actionable purchase suggestion. The order date is
// the first day of the demand month minus lead time and may lie in the past;
// that means the caller is already late and must be surfaced as-is.
type OrderRecommendation struct {
	Material            string    `json:"material"`
	MonthStart          time.Time `json:"forecast_month_start"`
	ForecastedDemand    float64   `json:"forecasted_demand"`
	Quantity            int       `json:"recommended_order_quantity"`
	OrderDate           time.Time `json:"recommended_order_date"`
	SupplierReliability float64   `json:"supplier_reliability"`
}

// BulkOrder aggregates recommended quantities of all materials whose order
// dates fall in the same calendar month (keyed "YYYY-MM").
type BulkOrder struct {
	OrderMonth string `json:"order_month"`
	Quantity   int    `json:"bulk_order_quantity"`
}

// WeatherSnapshot is a point-in-time site weather reading. Temperature in
// degrees C, rain in mm over the lookahead window, humidity in percent, wind
// in km/h.
type WeatherSnapshot struct {
	Temperature float64 `json:"temperature"`
	Rain        float64 `json:"rain"`
	Humidity    float64 `json:"humidity"`
	Wind        float64 `json:"wind"`
}

// Risk levels produced by the risk engine.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// RiskAssessment is the per-request output of the risk engine. It is never
// persisted.
type RiskAssessment struct {
	Phase             string          `json:"phase"`
	Structure         string          `json:"structure"`
	Weather           WeatherSnapshot `json:"weather"`
	RiskLevel         string          `json:"risk_level"`
	Confidence        float64         `json:"confidence"`
	AlertText         string          `json:"alert_text"`
	RecommendedAction string          `json:"recommended_action"`
}

// RecoveryPlan groups suggested actions after a weather loss event. The
// Immediate Actions bucket is always seeded with two defaults.
type RecoveryPlan struct {
	ImmediateActions     []string `json:"immediate_actions"`
	MaterialPreservation []string `json:"material_preservation"`
	Rescheduling         []string `json:"rescheduling"`
	Safety               []string `json:"safety"`
}

// Project is a registered construction project.
type Project struct {
	ID        int64  `json:"id" db:"id"`
	Owner     string `json:"owner" db:"owner"`
	Name      string `json:"name" db:"name"`
	Location  string `json:"location" db:"location"`
	Type      string `json:"type" db:"type"`
	StartDate string `json:"startDate" db:"start_date"`
	EndDate   string `json:"endDate" db:"end_date"`
	Status    string `json:"status" db:"status"`
}

// Incident is an appended record of a reported loss event.
type Incident struct {
	Timestamp   int64          `json:"timestamp"`
	ProjectName string         `json:"project_name"`
	Phase       string         `json:"phase"`
	Description string         `json:"description"`
	User        string         `json:"user,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// MaterialSummary is the per-material digest used as auxiliary context for
// narrative risk analysis.
type MaterialSummary struct {
	Material    string  `json:"material"`
	TotalUsage  float64 `json:"total_usage"`
	AvgMonthly  float64 `json:"avg_monthly"`
	Last3Months float64 `json:"last_3_months"`
	LastDate    string  `json:"last_date"`
}

// UsageSummary digests an uploaded history for narrative analysis: the top
// materials by total usage plus their per-material stats.
type UsageSummary struct {
	TopMaterials []MaterialSummary `json:"top_materials"`
}
