package risk

import (
	"strings"

	"github.com/predichain/backend-go/internal/domain"
)

// rainCoverThresholdMM triggers material covering advice.
const rainCoverThresholdMM = 15

// BuildRecoveryPlan maps a reported loss event to concrete recovery actions.
// Rules are additive: every matching condition contributes its bucket entries,
// and the Immediate Actions bucket always starts with the two defaults.
func BuildRecoveryPlan(phase, description string, weather domain.WeatherSnapshot) domain.RecoveryPlan {
	phase = NormalizeTerm(phase, KnownPhases)
	desc := strings.ToLower(description)

	plan := domain.RecoveryPlan{
		ImmediateActions: []string{
			"Secure the site and halt exposed work.",
			"Document the damage with photos for insurance and claims.",
		},
		MaterialPreservation: []string{},
		Rescheduling:         []string{},
		Safety:               []string{},
	}

	if strings.Contains(phase, "slab") || strings.Contains(desc, "concrete") {
		plan.ImmediateActions = append(plan.ImmediateActions,
			"Stop all concrete pouring and let poured surfaces dry.")
		plan.Rescheduling = append(plan.Rescheduling,
			"Delay pouring until rain probability is below 10% and humidity below 70%.")
	}

	if strings.Contains(phase, "foundation") {
		plan.Safety = append(plan.Safety,
			"Inspect for soil settlement or waterlogging around the foundation.")
	}

	if weather.Rain > rainCoverThresholdMM {
		plan.MaterialPreservation = append(plan.MaterialPreservation,
			"Cover raw materials with tarpaulin to avoid moisture damage.")
	}

	if strings.Contains(desc, "steel") {
		plan.MaterialPreservation = append(plan.MaterialPreservation,
			"Check steel for corrosion; clean and reapply rust-proof coating.")
	}

	if strings.Contains(phase, "paint") {
		plan.Rescheduling = append(plan.Rescheduling,
			"Hold painting until humidity drops below 70%.")
	}

	return plan
}
