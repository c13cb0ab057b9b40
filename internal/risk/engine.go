package risk

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// Features is the input vector handed to a risk classifier.
type Features struct {
	Temperature   float64
	Rain          float64
	Humidity      float64
	Wind          float64
	MaterialCount int
	Phase         string
	Structure     string
}

// Classifier maps site features to a risk level and confidence. A trained
// model plugs in here; when none is configured, or it errors, the engine falls
// back to the built-in heuristic ladder.
type Classifier interface {
	Classify(f Features) (level string, confidence float64, err error)
}

// Request is one risk assessment invocation.
type Request struct {
	ProjectName string   `json:"project_name"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Location    string   `json:"location"`
	Phase       string   `json:"phase"`
	Structure   string   `json:"structure_type"`
	Materials   []string `json:"materials"`
}

// Engine produces weather-driven risk assessments. Assess never returns an
// error: every dependency failure degrades to a built-in fallback.
type Engine struct {
	weather    WeatherProvider
	classifier Classifier

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(weather WeatherProvider, classifier Classifier) *Engine {
	return &Engine{
		weather:    weather,
		classifier: classifier,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Assess fetches site weather, classifies risk, and composes the alert.
func (e *Engine) Assess(ctx context.Context, req Request) domain.RiskAssessment {
	weather := e.fetchWeather(ctx, req.Latitude, req.Longitude)

	phase := NormalizeTerm(req.Phase, KnownPhases)
	structure := NormalizeTerm(req.Structure, KnownStructures)

	features := Features{
		Temperature:   weather.Temperature,
		Rain:          weather.Rain,
		Humidity:      weather.Humidity,
		Wind:          weather.Wind,
		MaterialCount: len(req.Materials),
		Phase:         phase,
		Structure:     structure,
	}

	level, confidence := e.classify(features)

	action := "Acknowledge"
	if level == domain.RiskHigh {
		action = "What to do next"
	}

	return domain.RiskAssessment{
		Phase:             phase,
		Structure:         structure,
		Weather:           weather,
		RiskLevel:         level,
		Confidence:        confidence,
		AlertText:         alertText(level, weather, phase, req.Location),
		RecommendedAction: action,
	}
}

func (e *Engine) fetchWeather(ctx context.Context, lat, lon float64) domain.WeatherSnapshot {
	if e.weather != nil {
		snap, err := e.weather.Fetch(ctx, lat, lon)
		if err == nil {
			return snap
		}
		log.Warn().Err(err).
			Float64("lat", lat).Float64("lon", lon).
			Msg("risk: live weather unavailable, using synthetic reading")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return syntheticWeather(e.rng)
}

func (e *Engine) classify(f Features) (string, float64) {
	if e.classifier != nil {
		level, confidence, err := e.classifier.Classify(f)
		if err == nil {
			return level, confidence
		}
		log.Warn().Err(err).Msg("risk: classifier failed, using heuristic ladder")
	}
	return HeuristicClassify(f)
}

// HeuristicClassify is the rule ladder used when no trained classifier is
// available. Points accumulate per adverse condition; the total maps to a
// level and a confidence that grows with the score.
func HeuristicClassify(f Features) (string, float64) {
	score := 0
	if f.Rain > 20 {
		score += 2
	}
	if f.Humidity > 85 {
		score += 2
	}
	if f.Wind > 35 {
		score++
	}
	if strings.Contains(f.Phase, "slab") || strings.Contains(f.Phase, "concrete") {
		score++
	}

	level := domain.RiskLow
	switch {
	case score >= 4:
		level = domain.RiskHigh
	case score >= 2:
		level = domain.RiskMedium
	}

	confidence := 0.6 + 0.1*float64(score)
	if confidence > 1 {
		confidence = 1
	}
	return level, confidence
}

// alertText composes the user-facing alert line. Every branch yields a
// non-empty message.
func alertText(level string, weather domain.WeatherSnapshot, phase, location string) string {
	if location == "" {
		location = "the site"
	}
	switch {
	case level == domain.RiskHigh && weather.Rain > 20:
		return fmt.Sprintf("Heavy rain forecasted near %s. Postpone %s work immediately.", location, phase)
	case level == domain.RiskHigh:
		return fmt.Sprintf("High-risk conditions near %s. Pause %s work and secure the site.", location, phase)
	case level == domain.RiskMedium:
		return fmt.Sprintf("Slightly risky conditions for %s. Monitor humidity and material storage.", phase)
	case level == domain.RiskLow:
		return fmt.Sprintf("Optimal conditions for the %s phase. Continue safely.", phase)
	default:
		return "Everything is fine, no weather alerts."
	}
}
