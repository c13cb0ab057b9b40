// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/predichain/backend-go/internal/api"
	"github.com/predichain/backend-go/internal/cache"
	"github.com/predichain/backend-go/internal/config"
	"github.com/predichain/backend-go/internal/forecast"
	"github.com/predichain/backend-go/internal/pipeline/ingest"
	"github.com/predichain/backend-go/internal/repository"
	"github.com/predichain/backend-go/internal/repository/postgres"
	"github.com/predichain/backend-go/internal/risk"
	"github.com/predichain/backend-go/internal/service"
	"github.com/predichain/backend-go/internal/storage"
	"github.com/predichain/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Upload archive
	archive, err := storage.NewFromConfig(cfg.Storage, cfg.App.UploadDir)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize upload archive")
	}

	// Forecast cache; a broken cache degrades to recompute
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, running without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	// Core services
	adapter := forecast.NewAdapter(forecast.NewLinearForecaster())
	forecastService := service.NewForecastService(adapter, forecastCache)
	recommendationService := service.NewRecommendationService(forecastService)

	// Project registry
	projectStore, err := repository.NewFileProjectStore(cfg.App.ProjectsFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize project store")
	}

	// Incident sink: database when available, append-only file otherwise
	var incidentSink risk.IncidentLog
	var usageRepo *postgres.UsageRepository

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Database unavailable, falling back to file incident log")
		fileLog, ferr := repository.NewFileIncidentLog(cfg.App.IncidentsFile)
		if ferr != nil {
			logger.Log.Fatal().Err(ferr).Msg("Failed to initialize incident log")
		}
		incidentSink = fileLog
	} else {
		defer db.Close()
		incidentSink = postgres.NewIncidentRepository(db)
		usageRepo = postgres.NewUsageRepository(db)

		// Re-ingest the archive in the background so stored history catches
		// up with whatever landed while the server was down.
		go func() {
			worker := ingest.NewWorker(
				ingest.DefaultConfig("upload"),
				ingest.NewRepository(db.DB.DB),
				archive,
				usageRepo,
			)
			keys, err := archive.ListObjects(context.Background(), "")
			if err != nil {
				logger.Log.Warn().Err(err).Msg("Archive listing failed, skipping startup ingest")
				return
			}
			names := make([]string, 0, len(keys))
			for _, obj := range keys {
				names = append(names, obj.Key)
			}
			if len(names) == 0 {
				return
			}
			if _, err := worker.ProcessBatch(context.Background(), names); err != nil {
				logger.Log.Warn().Err(err).Msg("Startup ingest failed")
			}
		}()
	}

	// Risk engine
	weatherProvider := risk.NewOpenMeteoProvider(cfg.Weather)
	riskEngine := risk.NewEngine(weatherProvider, nil)
	riskService := service.NewRiskService(riskEngine, incidentSink, risk.RuleAnalyzer{})

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		ForecastService:       forecastService,
		RecommendationService: recommendationService,
		RiskService:           riskService,
		ProjectStore:          projectStore,
		UploadArchive:         archive,
		UsageRepository:       usageRepo,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
