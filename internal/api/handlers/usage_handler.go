// backend-go/internal/api/handlers/usage_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predichain/backend-go/internal/repository/postgres"
	"github.com/predichain/backend-go/internal/service"
)

// UsageHandler serves stored usage history. Only mounted when a database is
// configured.
type UsageHandler struct {
	usage *postgres.UsageRepository
}

func NewUsageHandler(usage *postgres.UsageRepository) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// List handles GET /usage?material=cement.
func (h *UsageHandler) List(c *gin.Context) {
	daily, err := h.usage.ListByMaterial(c.Request.Context(), c.Query("material"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rows":    daily,
		"summary": service.BuildUsageSummary(daily),
	})
}
