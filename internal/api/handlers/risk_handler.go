// backend-go/internal/api/handlers/risk_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/risk"
	"github.com/predichain/backend-go/internal/service"
)

// RiskHandler serves the weather risk endpoints. These endpoints degrade
// internally and never fail on upstream weather problems.
type RiskHandler struct {
	risks     *service.RiskService
	forecasts *service.ForecastService
}

func NewRiskHandler(risks *service.RiskService, forecasts *service.ForecastService) *RiskHandler {
	return &RiskHandler{risks: risks, forecasts: forecasts}
}

// Assess handles POST /risk/assess.
func (h *RiskHandler) Assess(c *gin.Context) {
	var req risk.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid risk request: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, h.risks.Assess(c.Request.Context(), req))
}

// Recover handles POST /risk/recovery: a reported loss event in, a recovery
// plan out. The incident is logged best-effort.
func (h *RiskHandler) Recover(c *gin.Context) {
	var report service.IncidentReport
	if err := c.ShouldBindJSON(&report); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid incident report: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, h.risks.Recover(c.Request.Context(), report))
}

// Analyze handles POST /risk/analysis: a risk request with an optional usage
// log whose digest feeds the narrative.
func (h *RiskHandler) Analyze(c *gin.Context) {
	var req risk.Request
	var summary *domain.UsageSummary

	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "could not open uploaded file")
			return
		}
		defer f.Close()

		normalized, err := h.forecasts.NormalizeCSV(f)
		if err != nil {
			respondPipelineError(c, err)
			return
		}
		summary = service.BuildUsageSummary(normalized.Daily)

		bindRiskForm(c, &req)
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid risk request: "+err.Error())
			return
		}
	}

	insight := h.risks.Analyze(c.Request.Context(), req, summary)
	c.JSON(http.StatusOK, gin.H{
		"insight": insight,
		"summary": summary,
	})
}

func bindRiskForm(c *gin.Context, req *risk.Request) {
	req.ProjectName = c.PostForm("project_name")
	req.Location = c.PostForm("location")
	req.Phase = c.PostForm("phase")
	req.Structure = c.PostForm("structure_type")
	if lat, err := floatForm(c, "latitude"); err == nil {
		req.Latitude = lat
	}
	if lon, err := floatForm(c, "longitude"); err == nil {
		req.Longitude = lon
	}
	req.Materials = c.PostFormArray("materials")
}
