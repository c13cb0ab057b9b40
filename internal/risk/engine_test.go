package risk

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProvider struct{}

func (failingProvider) Fetch(context.Context, float64, float64) (domain.WeatherSnapshot, error) {
	return domain.WeatherSnapshot{}, fmt.Errorf("upstream down")
}

type fixedProvider struct {
	snap domain.WeatherSnapshot
}

func (p fixedProvider) Fetch(context.Context, float64, float64) (domain.WeatherSnapshot, error) {
	return p.snap, nil
}

func TestHeuristicClassifyLadder(t *testing.T) {
	cases := []struct {
		name           string
		features       Features
		wantLevel      string
		wantConfidence float64
	}{
		{
			name:           "calm conditions",
			features:       Features{Rain: 2, Humidity: 60, Wind: 10},
			wantLevel:      domain.RiskLow,
			wantConfidence: 0.6,
		},
		{
			name:           "heavy rain alone",
			features:       Features{Rain: 25, Humidity: 60, Wind: 10},
			wantLevel:      domain.RiskMedium,
			wantConfidence: 0.8,
		},
		{
			name:           "rain and humidity",
			features:       Features{Rain: 25, Humidity: 90, Wind: 10},
			wantLevel:      domain.RiskHigh,
			wantConfidence: 1.0,
		},
		{
			name:           "wind plus sensitive phase",
			features:       Features{Rain: 2, Humidity: 60, Wind: 40, Phase: "slabbing"},
			wantLevel:      domain.RiskMedium,
			wantConfidence: 0.8,
		},
		{
			name:           "everything adverse clamps confidence",
			features:       Features{Rain: 30, Humidity: 95, Wind: 50, Phase: "slabbing"},
			wantLevel:      domain.RiskHigh,
			wantConfidence: 1.0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			level, confidence := HeuristicClassify(tc.features)
			assert.Equal(t, tc.wantLevel, level)
			assert.InDelta(t, tc.wantConfidence, confidence, 1e-9)
		})
	}
}

func TestAssessNeverFailsOnWeatherOutage(t *testing.T) {
	engine := NewEngine(failingProvider{}, nil)

	result := engine.Assess(context.Background(), Request{
		Phase:     "slabbing",
		Structure: "building",
		Location:  "Pune",
	})

	// Synthetic readings stay inside climate-norm bands.
	assert.InDelta(t, 28, result.Weather.Temperature, 3.001)
	assert.GreaterOrEqual(t, result.Weather.Rain, 0.0)
	assert.LessOrEqual(t, result.Weather.Rain, 10.0)
	assert.InDelta(t, 60, result.Weather.Humidity, 10.001)
	assert.InDelta(t, 8, result.Weather.Wind, 3.001)

	assert.Contains(t, []string{domain.RiskLow, domain.RiskMedium, domain.RiskHigh}, result.RiskLevel)
	assert.NotEmpty(t, result.AlertText)
	assert.NotEmpty(t, result.RecommendedAction)
}

func TestAssessHighRainAlertAndAction(t *testing.T) {
	engine := NewEngine(fixedProvider{domain.WeatherSnapshot{
		Temperature: 27, Rain: 30, Humidity: 92, Wind: 12,
	}}, nil)

	result := engine.Assess(context.Background(), Request{
		Phase:     "slabbing",
		Structure: "building",
		Location:  "Mumbai",
	})

	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
	assert.Contains(t, result.AlertText, "Postpone")
	assert.Contains(t, result.AlertText, "Mumbai")
	assert.Equal(t, "What to do next", result.RecommendedAction)
}

func TestAssessLowRiskAction(t *testing.T) {
	engine := NewEngine(fixedProvider{domain.WeatherSnapshot{
		Temperature: 27, Rain: 0, Humidity: 55, Wind: 8,
	}}, nil)

	result := engine.Assess(context.Background(), Request{Phase: "painting"})

	assert.Equal(t, domain.RiskLow, result.RiskLevel)
	assert.Equal(t, "Acknowledge", result.RecommendedAction)
	assert.Contains(t, strings.ToLower(result.AlertText), "painting")
}

type stubClassifier struct {
	level      string
	confidence float64
	err        error
}

func (s stubClassifier) Classify(Features) (string, float64, error) {
	return s.level, s.confidence, s.err
}

func TestAssessPrefersConfiguredClassifier(t *testing.T) {
	engine := NewEngine(
		fixedProvider{domain.WeatherSnapshot{Rain: 0, Humidity: 50}},
		stubClassifier{level: domain.RiskHigh, confidence: 0.93},
	)

	result := engine.Assess(context.Background(), Request{Phase: "roofing"})
	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
	assert.InDelta(t, 0.93, result.Confidence, 1e-9)
}

func TestAssessFallsBackWhenClassifierErrors(t *testing.T) {
	engine := NewEngine(
		fixedProvider{domain.WeatherSnapshot{Rain: 25, Humidity: 90}},
		stubClassifier{err: fmt.Errorf("model not loaded")},
	)

	result := engine.Assess(context.Background(), Request{Phase: "roofing"})
	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
}

func TestNormalizeTerm(t *testing.T) {
	cases := []struct {
		in    string
		vocab []string
		want  string
	}{
		{"slabing", KnownPhases, "slabbing"},
		{"  Foundation ", KnownPhases, "foundation"},
		{"CURING", KnownPhases, "curing"},
		{"brige", KnownStructures, "bridge"},
		{"zzzzzzzzzz", KnownPhases, "zzzzzzzzzz"}, // below cutoff, passes through
		{"", KnownPhases, "unknown"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeTerm(tc.in, tc.vocab), "input %q", tc.in)
	}
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("curing", "curing"))
	assert.Equal(t, 1, editDistance("slabing", "slabbing"))
	assert.Equal(t, 3, editDistance("kitten", "sitting"))
}

func TestRuleAnalyzerCalmSite(t *testing.T) {
	insight, err := RuleAnalyzer{}.Analyze(context.Background(), AnalysisContext{
		Project: Request{Phase: "finishing"},
		Weather: domain.WeatherSnapshot{Temperature: 26, Rain: 1, Humidity: 55, Wind: 9},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RiskLow, insight.RiskLevel)
	assert.NotEmpty(t, insight.Reasoning)
	assert.NotEmpty(t, insight.Recommendations)
}

func TestRuleAnalyzerMentionsDominantMaterial(t *testing.T) {
	insight, err := RuleAnalyzer{}.Analyze(context.Background(), AnalysisContext{
		Project: Request{Phase: "slabbing"},
		Weather: domain.WeatherSnapshot{Rain: 25, Humidity: 90},
		Usage: &domain.UsageSummary{TopMaterials: []domain.MaterialSummary{
			{Material: "cement", TotalUsage: 9000, Last3Months: 2400},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RiskHigh, insight.RiskLevel)

	found := false
	for _, rec := range insight.Recommendations {
		if strings.Contains(rec, "cement") {
			found = true
		}
	}
	assert.True(t, found, "expected a recommendation about the dominant material")
}
