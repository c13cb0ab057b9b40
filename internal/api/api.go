// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/predichain/backend-go/internal/api/handlers"
	"github.com/predichain/backend-go/internal/api/middleware"
	"github.com/predichain/backend-go/internal/repository"
	"github.com/predichain/backend-go/internal/repository/postgres"
	"github.com/predichain/backend-go/internal/service"
	"github.com/predichain/backend-go/internal/storage"
)

type Services struct {
	ForecastService       *service.ForecastService
	RecommendationService *service.RecommendationService
	RiskService           *service.RiskService
	ProjectStore          repository.ProjectStore
	UploadArchive         storage.ObjectStorage
	UsageRepository       *postgres.UsageRepository
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.ForecastService != nil {
			forecastHandler := handlers.NewForecastHandler(services.ForecastService, services.UploadArchive)
			apiGroup.POST("/upload", forecastHandler.Upload)
			apiGroup.POST("/forecast", forecastHandler.Forecast)
		}

		if services.RecommendationService != nil {
			recommendationHandler := handlers.NewRecommendationHandler(services.RecommendationService)
			recommendationGroup := apiGroup.Group("/recommendation")
			{
				recommendationGroup.POST("", recommendationHandler.Recommend)
				recommendationGroup.POST("/batch", recommendationHandler.RecommendBatch)
			}
		}

		if services.ProjectStore != nil {
			projectHandler := handlers.NewProjectHandler(services.ProjectStore)
			projectGroup := apiGroup.Group("/projects")
			{
				projectGroup.GET("", projectHandler.List)
				projectGroup.POST("", projectHandler.Add)
				projectGroup.DELETE("/:id", projectHandler.Remove)
			}
		}

		if services.UsageRepository != nil {
			usageHandler := handlers.NewUsageHandler(services.UsageRepository)
			apiGroup.GET("/usage", usageHandler.List)
		}

		if services.RiskService != nil {
			riskHandler := handlers.NewRiskHandler(services.RiskService, services.ForecastService)
			riskGroup := apiGroup.Group("/risk")
			{
				riskGroup.POST("/assess", riskHandler.Assess)
				riskGroup.POST("/recovery", riskHandler.Recover)
				riskGroup.POST("/analysis", riskHandler.Analyze)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
