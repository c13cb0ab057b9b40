package risk

import (
	"context"
	"time"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// IncidentLog is an append-only sink for reported loss events.
type IncidentLog interface {
	Append(ctx context.Context, incident domain.Incident) error
}

// ReportIncident records a loss event and returns its recovery plan. Logging
// is best-effort: a sink failure is logged and swallowed so the caller still
// gets the plan.
func (e *Engine) ReportIncident(ctx context.Context, sink IncidentLog, lat, lon float64, projectName, phase, description, user string) domain.RecoveryPlan {
	weather := e.fetchWeather(ctx, lat, lon)
	plan := BuildRecoveryPlan(phase, description, weather)

	if sink != nil {
		incident := domain.Incident{
			Timestamp:   time.Now().Unix(),
			ProjectName: projectName,
			Phase:       NormalizeTerm(phase, KnownPhases),
			Description: description,
			User:        user,
		}
		if err := sink.Append(ctx, incident); err != nil {
			log.Warn().Err(err).Str("project", projectName).Msg("risk: incident log append failed")
		}
	}

	return plan
}
