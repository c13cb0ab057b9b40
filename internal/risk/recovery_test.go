package risk

import (
	"context"
	"fmt"
	"testing"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryPlanAlwaysSeedsImmediateActions(t *testing.T) {
	plan := BuildRecoveryPlan("finishing", "minor delay", domain.WeatherSnapshot{})

	require.Len(t, plan.ImmediateActions, 2)
	assert.Empty(t, plan.MaterialPreservation)
	assert.Empty(t, plan.Rescheduling)
	assert.Empty(t, plan.Safety)
}

func TestRecoveryPlanRulesAreAdditive(t *testing.T) {
	plan := BuildRecoveryPlan(
		"slabbing",
		"rain hit the fresh concrete and exposed steel rods",
		domain.WeatherSnapshot{Rain: 22},
	)

	assert.Len(t, plan.ImmediateActions, 3) // two defaults + stop pouring
	assert.Len(t, plan.MaterialPreservation, 2)
	assert.Len(t, plan.Rescheduling, 1)
}

func TestRecoveryPlanFoundationSafety(t *testing.T) {
	plan := BuildRecoveryPlan("foundation", "flooded excavation", domain.WeatherSnapshot{})

	require.Len(t, plan.Safety, 1)
	assert.Contains(t, plan.Safety[0], "foundation")
}

func TestRecoveryPlanPaintingReschedule(t *testing.T) {
	plan := BuildRecoveryPlan("painting", "humid spell", domain.WeatherSnapshot{})

	require.Len(t, plan.Rescheduling, 1)
	assert.Contains(t, plan.Rescheduling[0], "humidity")
}

func TestRecoveryPlanNormalizesPhaseSpelling(t *testing.T) {
	plan := BuildRecoveryPlan("slabing", "", domain.WeatherSnapshot{})
	assert.Len(t, plan.ImmediateActions, 3)
}

type recordingLog struct {
	incidents []domain.Incident
	err       error
}

func (r *recordingLog) Append(_ context.Context, i domain.Incident) error {
	if r.err != nil {
		return r.err
	}
	r.incidents = append(r.incidents, i)
	return nil
}

func TestReportIncidentLogsAndReturnsPlan(t *testing.T) {
	engine := NewEngine(failingProvider{}, nil)
	sink := &recordingLog{}

	plan := engine.ReportIncident(context.Background(), sink, 19.0, 72.8,
		"Metro Line 3", "slabbing", "overnight rain on fresh slab", "site-eng")

	require.Len(t, sink.incidents, 1)
	assert.Equal(t, "Metro Line 3", sink.incidents[0].ProjectName)
	assert.Equal(t, "slabbing", sink.incidents[0].Phase)
	assert.NotZero(t, sink.incidents[0].Timestamp)
	assert.NotEmpty(t, plan.ImmediateActions)
}

func TestReportIncidentSurvivesSinkFailure(t *testing.T) {
	engine := NewEngine(failingProvider{}, nil)
	sink := &recordingLog{err: errSinkDown}

	plan := engine.ReportIncident(context.Background(), sink, 0, 0,
		"p", "curing", "desc", "")
	assert.NotEmpty(t, plan.ImmediateActions)
}

var errSinkDown = fmt.Errorf("sink down")
