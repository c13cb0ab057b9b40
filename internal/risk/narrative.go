package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// AnalysisContext bundles everything a narrative analyzer may draw on.
type AnalysisContext struct {
	Project Request
	Weather domain.WeatherSnapshot
	Usage   *domain.UsageSummary
}

// Insight is a prose-level risk read: a level, the reasoning behind it, and
// concrete recommendations.
type Insight struct {
	RiskLevel       string   `json:"risk_level"`
	Reasoning       string   `json:"reasoning"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}

// NarrativeAnalyzer produces an Insight from an AnalysisContext. External
// model-backed analyzers implement this; RuleAnalyzer is the local default
// and the fallback when an external analyzer errors.
type NarrativeAnalyzer interface {
	Analyze(ctx context.Context, ac AnalysisContext) (Insight, error)
}

// RuleAnalyzer derives the narrative deterministically from the heuristic
// ladder plus the usage digest.
type RuleAnalyzer struct{}

func (RuleAnalyzer) Analyze(_ context.Context, ac AnalysisContext) (Insight, error) {
	features := Features{
		Temperature:   ac.Weather.Temperature,
		Rain:          ac.Weather.Rain,
		Humidity:      ac.Weather.Humidity,
		Wind:          ac.Weather.Wind,
		MaterialCount: len(ac.Project.Materials),
		Phase:         NormalizeTerm(ac.Project.Phase, KnownPhases),
		Structure:     NormalizeTerm(ac.Project.Structure, KnownStructures),
	}
	level, confidence := HeuristicClassify(features)

	reasons := make([]string, 0, 4)
	recs := make([]string, 0, 4)

	if ac.Weather.Rain > 20 {
		reasons = append(reasons, fmt.Sprintf("forecast shows %.1f mm of rain over the next hours", ac.Weather.Rain))
		recs = append(recs, "Reschedule pouring and exposed work around the rain window.")
	}
	if ac.Weather.Humidity > 85 {
		reasons = append(reasons, fmt.Sprintf("humidity is elevated at %.0f%%", ac.Weather.Humidity))
		recs = append(recs, "Extend curing times and protect moisture-sensitive materials.")
	}
	if ac.Weather.Wind > 35 {
		reasons = append(reasons, fmt.Sprintf("wind speed of %.0f km/h exceeds safe crane limits", ac.Weather.Wind))
		recs = append(recs, "Suspend crane lifts and secure loose scaffolding.")
	}
	if strings.Contains(features.Phase, "slab") {
		reasons = append(reasons, "the project is in a weather-sensitive slabbing phase")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "current weather poses no significant threat to the active phase")
		recs = append(recs, "Proceed as planned and re-check conditions tomorrow.")
	}

	if ac.Usage != nil && len(ac.Usage.TopMaterials) > 0 {
		top := ac.Usage.TopMaterials[0]
		recs = append(recs, fmt.Sprintf(
			"Keep a close eye on %s stock; it dominates recent usage (%.0f units over the last three months).",
			top.Material, top.Last3Months))
	}

	return Insight{
		RiskLevel:       level,
		Reasoning:       strings.Join(reasons, "; "),
		Recommendations: recs,
		Confidence:      confidence,
	}, nil
}

// AnalyzeNarrative runs the configured analyzer against live weather, falling
// back to the rule-based analyzer on any failure. Like Assess, it never
// errors.
func (e *Engine) AnalyzeNarrative(ctx context.Context, req Request, usage *domain.UsageSummary, analyzer NarrativeAnalyzer) Insight {
	ac := AnalysisContext{
		Project: req,
		Weather: e.fetchWeather(ctx, req.Latitude, req.Longitude),
		Usage:   usage,
	}

	if analyzer != nil {
		insight, err := analyzer.Analyze(ctx, ac)
		if err == nil {
			return insight
		}
		log.Warn().Err(err).Msg("risk: narrative analyzer failed, using rule analyzer")
	}

	insight, _ := RuleAnalyzer{}.Analyze(ctx, ac)
	return insight
}
