package risk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/predichain/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMeteoTestServer(t *testing.T, handler http.HandlerFunc) *OpenMeteoProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenMeteoProvider(config.WeatherConfig{BaseURL: srv.URL})
}

func TestOpenMeteoFetchAggregatesTrailingWindow(t *testing.T) {
	provider := openMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.5000", r.URL.Query().Get("latitude"))
		assert.Contains(t, r.URL.Query().Get("hourly"), "precipitation")

		// 12 hours; only the last 6 should count. Last six temperatures are
		// 25..30, rain 1mm each hour, humidity 70, wind 12.
		fmt.Fprint(w, `{"hourly":{
			"temperature_2m":[0,0,0,0,0,0,25,26,27,28,29,30],
			"precipitation":[9,9,9,9,9,9,1,1,1,1,1,1],
			"relative_humidity_2m":[0,0,0,0,0,0,70,70,70,70,70,70],
			"wind_speed_10m":[0,0,0,0,0,0,12,12,12,12,12,12]
		}}`)
	})

	snap, err := provider.Fetch(context.Background(), 1.5, 103.8)
	require.NoError(t, err)

	assert.InDelta(t, 27.5, snap.Temperature, 1e-9)
	assert.InDelta(t, 6.0, snap.Rain, 1e-9) // accumulated, not averaged
	assert.InDelta(t, 70.0, snap.Humidity, 1e-9)
	assert.InDelta(t, 12.0, snap.Wind, 1e-9)
}

func TestOpenMeteoFetchShortSeries(t *testing.T) {
	provider := openMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hourly":{
			"temperature_2m":[30,32],
			"precipitation":[2,4],
			"relative_humidity_2m":[60,80],
			"wind_speed_10m":[10,20]
		}}`)
	})

	snap, err := provider.Fetch(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 31.0, snap.Temperature, 1e-9)
	assert.InDelta(t, 6.0, snap.Rain, 1e-9)
}

func TestOpenMeteoFetchErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		provider := openMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := provider.Fetch(context.Background(), 0, 0)
		require.Error(t, err)
	})

	t.Run("missing hourly block", func(t *testing.T) {
		provider := openMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		})
		_, err := provider.Fetch(context.Background(), 0, 0)
		require.Error(t, err)
	})

	t.Run("inconsistent series lengths", func(t *testing.T) {
		provider := openMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"hourly":{
				"temperature_2m":[30,31],
				"precipitation":[2],
				"relative_humidity_2m":[60,61],
				"wind_speed_10m":[10,11]
			}}`)
		})
		_, err := provider.Fetch(context.Background(), 0, 0)
		require.Error(t, err)
	})
}
