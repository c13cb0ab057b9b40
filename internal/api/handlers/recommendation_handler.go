// backend-go/internal/api/handlers/recommendation_handler.go
package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/service"
)

// defaultLeadTimeDays applies when the form omits lead_time_days.
const defaultLeadTimeDays = 10

// RecommendationHandler serves the procurement recommendation endpoints.
type RecommendationHandler struct {
	recommendations *service.RecommendationService
}

func NewRecommendationHandler(recommendations *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations}
}

// Recommend handles POST /recommendation: usage log plus project context for
// one material.
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	file, req, ok := readRecommendationForm(c, true)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.recommendations.RecommendCSV(c.Request.Context(), file, req)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecommendBatch handles POST /recommendation/batch: one plan per material in
// the uploaded history. Per-material failures come back as error entries.
func (h *RecommendationHandler) RecommendBatch(c *gin.Context) {
	file, req, ok := readRecommendationForm(c, false)
	if !ok {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	normalized, err := h.recommendations.NormalizeCSV(bytesReader(data))
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	results, err := h.recommendations.RecommendBatch(c.Request.Context(), normalized, req)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"materials": normalized.Materials,
		"results":   results,
	})
}

func readRecommendationForm(c *gin.Context, requireMaterial bool) (io.ReadCloser, service.RecommendationRequest, bool) {
	var req service.RecommendationRequest

	file, err := openUpload(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return nil, req, false
	}

	req.Material = c.PostForm("material")
	if requireMaterial && req.Material == "" {
		file.Close()
		errorResponse(c, http.StatusBadRequest, "material is required")
		return nil, req, false
	}

	fail := func(msg string) (io.ReadCloser, service.RecommendationRequest, bool) {
		file.Close()
		errorResponse(c, http.StatusBadRequest, msg)
		return nil, req, false
	}

	if raw := c.PostForm("forecast_horizon"); raw != "" {
		req.HorizonMonths, err = strconv.Atoi(raw)
		if err != nil || req.HorizonMonths < 0 {
			return fail("forecast_horizon must be a non-negative integer")
		}
	}

	pctx := domain.ProjectContext{
		ProjectName:  c.PostForm("project_name"),
		Location:     c.PostForm("location"),
		Notes:        c.PostForm("notes"),
		LeadTimeDays: defaultLeadTimeDays,
	}
	if raw := c.PostForm("lead_time_days"); raw != "" {
		pctx.LeadTimeDays, err = strconv.Atoi(raw)
		if err != nil || pctx.LeadTimeDays < 0 {
			return fail("lead_time_days must be a non-negative integer")
		}
	}
	if raw := c.PostForm("current_inventory"); raw != "" {
		pctx.CurrentInventory, err = strconv.ParseFloat(raw, 64)
		if err != nil || pctx.CurrentInventory < 0 {
			return fail("current_inventory must be a non-negative number")
		}
	}
	if raw := c.PostForm("supplier_reliability"); raw != "" {
		reliability, err := strconv.ParseFloat(raw, 64)
		if err != nil || reliability < 0 || reliability > 100 {
			return fail("supplier_reliability must be between 0 and 100")
		}
		// An explicit 0 is a meaningful (floor-applying) value, so presence
		// decides, not the number.
		pctx.SupplierReliabilityPercent = &reliability
	}

	req.Context = pctx
	return file, req, true
}
