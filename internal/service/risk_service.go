// backend-go/internal/service/risk_service.go
package service

import (
	"context"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/risk"
)

// RiskService fronts the risk engine for the API layer, carrying the
// configured incident sink and narrative analyzer.
type RiskService struct {
	engine   *risk.Engine
	incident risk.IncidentLog
	analyzer risk.NarrativeAnalyzer
}

func NewRiskService(engine *risk.Engine, incident risk.IncidentLog, analyzer risk.NarrativeAnalyzer) *RiskService {
	return &RiskService{engine: engine, incident: incident, analyzer: analyzer}
}

func (s *RiskService) Assess(ctx context.Context, req risk.Request) domain.RiskAssessment {
	return s.engine.Assess(ctx, req)
}

// IncidentReport is a reported loss event plus the site coordinates used to
// pull current weather for the recovery plan.
type IncidentReport struct {
	ProjectName string  `json:"project_name"`
	Phase       string  `json:"phase"`
	Description string  `json:"description"`
	User        string  `json:"user"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (s *RiskService) Recover(ctx context.Context, report IncidentReport) domain.RecoveryPlan {
	return s.engine.ReportIncident(ctx, s.incident,
		report.Latitude, report.Longitude,
		report.ProjectName, report.Phase, report.Description, report.User)
}

func (s *RiskService) Analyze(ctx context.Context, req risk.Request, usage *domain.UsageSummary) risk.Insight {
	return s.engine.AnalyzeNarrative(ctx, req, usage, s.analyzer)
}
