// backend-go/cmd/weathersim/main.go
//
// weathersim serves an Open-Meteo-compatible hourly forecast endpoint with
// deterministic synthetic data, so the risk engine can be exercised locally
// without touching the real API. Point WEATHER_BASE_URL at it.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

type hourly struct {
	Time        []string  `json:"time"`
	Temperature []float64 `json:"temperature_2m"`
	Rain        []float64 `json:"precipitation"`
	Humidity    []float64 `json:"relative_humidity_2m"`
	Wind        []float64 `json:"wind_speed_10m"`
}

type response struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    hourly  `json:"hourly"`
}

func forecastHandler(w http.ResponseWriter, r *http.Request) {
	lat, _ := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	lon, _ := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)

	// Deterministic in the coordinates so a given site always sees the same
	// synthetic day, which keeps local testing reproducible.
	seed := math.Abs(lat*7 + lon*13)

	now := time.Now().UTC().Truncate(time.Hour)
	h := hourly{}
	for i := 0; i < 24; i++ {
		t := now.Add(time.Duration(i-23) * time.Hour)
		phase := float64(i) / 24 * 2 * math.Pi

		h.Time = append(h.Time, t.Format("2006-01-02T15:04"))
		h.Temperature = append(h.Temperature, 26+4*math.Sin(phase+seed))
		h.Rain = append(h.Rain, math.Max(0, 6*math.Sin(phase*2+seed)-2))
		h.Humidity = append(h.Humidity, 65+15*math.Sin(phase/2+seed))
		h.Wind = append(h.Wind, 10+6*math.Abs(math.Sin(phase+seed/2)))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response{Latitude: lat, Longitude: lon, Hourly: h})
}

func main() {
	_ = godotenv.Load()

	r := mux.NewRouter()
	r.HandleFunc("/v1/forecast", forecastHandler).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	port := os.Getenv("WEATHERSIM_PORT")
	if port == "" {
		port = "8090"
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("weathersim listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
