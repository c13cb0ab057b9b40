package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/predichain/backend-go/internal/config"
	"github.com/predichain/backend-go/internal/domain"
)

// WeatherProvider fetches a live site weather reading. Failures are expected
// and handled by the engine's synthetic fallback; providers should fail fast
// rather than retry.
type WeatherProvider interface {
	Fetch(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error)
}

// lookbackHours is the window of hourly readings averaged into one snapshot.
const lookbackHours = 6

// OpenMeteoProvider reads the Open-Meteo hourly forecast endpoint.
type OpenMeteoProvider struct {
	baseURL string
	client  *http.Client
}

func NewOpenMeteoProvider(cfg config.WeatherConfig) *OpenMeteoProvider {
	connectTimeout := time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond
	if connectTimeout <= 0 {
		connectTimeout = 3 * time.Second
	}
	requestTimeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}

	return &OpenMeteoProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}
}

type openMeteoHourly struct {
	Temperature []float64 `json:"temperature_2m"`
	Rain        []float64 `json:"precipitation"`
	Humidity    []float64 `json:"relative_humidity_2m"`
	Wind        []float64 `json:"wind_speed_10m"`
}

type openMeteoResponse struct {
	Hourly *openMeteoHourly `json:"hourly"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("hourly", "temperature_2m,precipitation,relative_humidity_2m,wind_speed_10m")
	q.Set("forecast_days", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather fetch returned status %d", resp.StatusCode)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather response decode failed: %w", err)
	}
	if payload.Hourly == nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather response missing hourly block")
	}

	h := payload.Hourly
	n := len(h.Temperature)
	if n == 0 || len(h.Rain) != n || len(h.Humidity) != n || len(h.Wind) != n {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather response has inconsistent hourly series")
	}

	start := n - lookbackHours
	if start < 0 {
		start = 0
	}

	var snap domain.WeatherSnapshot
	count := float64(n - start)
	for i := start; i < n; i++ {
		snap.Temperature += h.Temperature[i]
		snap.Rain += h.Rain[i] // rain accumulates over the window
		snap.Humidity += h.Humidity[i]
		snap.Wind += h.Wind[i]
	}
	snap.Temperature /= count
	snap.Humidity /= count
	snap.Wind /= count

	return snap, nil
}

// syntheticWeather builds a randomized but plausible reading centered on
// regional climate norms. Used whenever the live fetch fails.
func syntheticWeather(rng *rand.Rand) domain.WeatherSnapshot {
	uniform := func(lo, hi float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}
	return domain.WeatherSnapshot{
		Temperature: 28 + uniform(-3, 3),
		Rain:        uniform(0, 10),
		Humidity:    60 + uniform(-10, 10),
		Wind:        8 + uniform(-3, 3),
	}
}
