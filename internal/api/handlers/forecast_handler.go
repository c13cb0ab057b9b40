// backend-go/internal/api/handlers/forecast_handler.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/service"
	"github.com/predichain/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// ForecastHandler serves the upload-and-forecast endpoints.
type ForecastHandler struct {
	forecasts *service.ForecastService
	archive   storage.ObjectStorage
}

func NewForecastHandler(forecasts *service.ForecastService, archive storage.ObjectStorage) *ForecastHandler {
	return &ForecastHandler{forecasts: forecasts, archive: archive}
}

// Forecast handles POST /forecast: a multipart usage log plus the target
// material and horizon.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	file, material, horizon, ok := readForecastForm(c)
	if !ok {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	h.archiveUpload(c, data)

	result, normalized, err := h.forecasts.ForecastCSV(c.Request.Context(), bytesReader(data), material, horizon)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"material":          result.Material,
		"forecast":          result.Monthly,
		"used_proxy_series": result.UsedProxySeries,
		"last_history_date": result.LastHistoryDate.Format("2006-01-02"),
		"dropped_rows":      normalized.DroppedRows,
	})
}

// Upload handles POST /upload: archive a usage log and report its
// normalization result without forecasting.
func (h *ForecastHandler) Upload(c *gin.Context) {
	file, err := openUpload(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	key := h.archiveUpload(c, data)

	normalized, err := h.forecasts.NormalizeCSV(bytesReader(data))
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"archive_key":  key,
		"materials":    normalized.Materials,
		"row_count":    len(normalized.Daily),
		"dropped_rows": normalized.DroppedRows,
	})
}

func (h *ForecastHandler) archiveUpload(c *gin.Context, data []byte) string {
	if h.archive == nil {
		return ""
	}
	key := fmt.Sprintf("uploads/%s.csv", time.Now().UTC().Format("20060102T150405.000000000"))
	if err := h.archive.PutObject(c.Request.Context(), key, data); err != nil {
		// Archival is best-effort; the request proceeds on the in-memory copy.
		log.Warn().Err(err).Msg("upload archive failed")
		return ""
	}
	return key
}

func readForecastForm(c *gin.Context) (io.ReadCloser, string, int, bool) {
	file, err := openUpload(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return nil, "", 0, false
	}

	material := c.PostForm("material")
	if material == "" {
		file.Close()
		errorResponse(c, http.StatusBadRequest, "material is required")
		return nil, "", 0, false
	}

	horizon := 0
	if raw := c.PostForm("forecast_horizon"); raw != "" {
		horizon, err = strconv.Atoi(raw)
		if err != nil || horizon < 0 {
			file.Close()
			errorResponse(c, http.StatusBadRequest, "forecast_horizon must be a non-negative integer")
			return nil, "", 0, false
		}
	}

	return file, material, horizon, true
}

func openUpload(c *gin.Context) (io.ReadCloser, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required")
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open uploaded file")
	}
	return f, nil
}

// respondPipelineError maps typed pipeline errors to status codes: schema and
// policy input problems are the caller's fault, forecast failures are ours.
func respondPipelineError(c *gin.Context, err error) {
	var schemaErr *domain.SchemaError
	var policyErr *domain.PolicyInputError
	var forecastErr *domain.ForecastError

	switch {
	case errors.As(err, &schemaErr), errors.As(err, &policyErr):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &forecastErr):
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}

func bytesReader(data []byte) io.Reader { return bytes.NewReader(data) }

func floatForm(c *gin.Context, field string) (float64, error) {
	return strconv.ParseFloat(c.PostForm(field), 64)
}
