package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/predichain/backend-go/internal/forecast"
	"github.com/predichain/backend-go/internal/repository"
	"github.com/predichain/backend-go/internal/risk"
	"github.com/predichain/backend-go/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	forecasts := service.NewForecastService(forecast.NewAdapter(forecast.NewLinearForecaster()), nil)
	// A nil weather provider makes the risk engine use synthetic readings,
	// keeping the tests offline.
	engine := risk.NewEngine(nil, nil)

	return NewRouter(&Services{
		ForecastService:       forecasts,
		RecommendationService: service.NewRecommendationService(forecasts),
		RiskService:           service.NewRiskService(engine, nil, risk.RuleAnalyzer{}),
		ProjectStore:          repository.NewMemoryProjectStore(),
	}, nil)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProjectLifecycle(t *testing.T) {
	router := newTestRouter(t)

	body := `{"name":"Metro Line 3","location":"Mumbai","type":"bridge"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Metro Line 3")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d", created.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/projects/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRiskAssessEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body := `{"phase":"slabing","structure_type":"building","location":"Pune","latitude":18.5,"longitude":73.8}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/assess", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Phase      string  `json:"phase"`
		RiskLevel  string  `json:"risk_level"`
		AlertText  string  `json:"alert_text"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "slabbing", result.Phase) // fuzzy-normalized
	assert.NotEmpty(t, result.RiskLevel)
	assert.NotEmpty(t, result.AlertText)
	assert.Greater(t, result.Confidence, 0.0)
}

// steadyUsageCSV renders sixty days of constant cement usage ending
// 2025-05-31.
func steadyUsageCSV() string {
	var csv strings.Builder
	csv.WriteString("date,material,quantity\n")
	end := time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)
	for i := 59; i >= 0; i-- {
		fmt.Fprintf(&csv, "%s,cement,100\n", end.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	return csv.String()
}

func multipartUpload(t *testing.T, csv string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "usage.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestForecastEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, steadyUsageCSV(), map[string]string{
		"material":         "cement",
		"forecast_horizon": "1",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Material string `json:"material"`
		Forecast []struct {
			Yhat float64 `json:"yhat"`
		} `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "cement", result.Material)
	require.Len(t, result.Forecast, 1)
	assert.InDelta(t, 3000, result.Forecast[0].Yhat, 1.0)
}

func TestForecastEndpointRejectsMissingSchema(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "foo,bar\n1,2\n", map[string]string{
		"material": "cement",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendationEndpointDefaultsLeadTime(t *testing.T) {
	router := newTestRouter(t)

	// No lead_time_days field: the 10-day default shifts the June demand's
	// order date back into May.
	body, contentType := multipartUpload(t, steadyUsageCSV(), map[string]string{
		"material":         "cement",
		"forecast_horizon": "1",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendation", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Plan struct {
			Orders []struct {
				OrderDate time.Time `json:"recommended_order_date"`
			} `json:"recommendations"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Plan.Orders, 1)
	assert.Equal(t, time.Date(2025, time.May, 22, 0, 0, 0, 0, time.UTC), result.Plan.Orders[0].OrderDate)
}
