// backend-go/internal/service/recommendation_service.go
package service

import (
	"context"
	"io"
	"sync"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/pipeline/usage"
	"github.com/predichain/backend-go/internal/procurement"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentForecasts bounds the batch fan-out so a wide material list
// cannot saturate the process.
const maxConcurrentForecasts = 4

// RecommendationService combines the forecast path with the procurement
// policy engine.
type RecommendationService struct {
	forecasts *ForecastService
}

func NewRecommendationService(forecasts *ForecastService) *RecommendationService {
	return &RecommendationService{forecasts: forecasts}
}

// NormalizeCSV exposes the shared normalization step for callers that need
// the material list before fanning out.
func (s *RecommendationService) NormalizeCSV(r io.Reader) (*usage.Result, error) {
	return s.forecasts.NormalizeCSV(r)
}

// RecommendationRequest is the per-request project context.
type RecommendationRequest struct {
	Material      string                `json:"material"`
	HorizonMonths int                   `json:"forecast_horizon"`
	Context       domain.ProjectContext `json:"project_context"`
}

// RecommendationResult pairs the forecast with the resulting plan.
type RecommendationResult struct {
	Material        string                   `json:"material"`
	Forecast        []domain.MonthlyForecast `json:"forecast"`
	UsedProxySeries bool                     `json:"used_proxy_series"`
	Plan            *procurement.Plan        `json:"plan"`
	Error           string                   `json:"error,omitempty"`
}

// Recommend runs the full pipeline for one material against normalized
// history.
func (s *RecommendationService) Recommend(ctx context.Context, normalized *usage.Result, req RecommendationRequest) (*RecommendationResult, error) {
	fc, err := s.forecasts.Forecast(ctx, normalized.Daily, req.Material, req.HorizonMonths)
	if err != nil {
		return nil, err
	}

	params := buildParams(req.Context, normalized.Reliability)
	plan, err := procurement.Recommend(fc.Monthly, params)
	if err != nil {
		return nil, err
	}

	return &RecommendationResult{
		Material:        fc.Material,
		Forecast:        fc.Monthly,
		UsedProxySeries: fc.UsedProxySeries,
		Plan:            plan,
	}, nil
}

// RecommendCSV normalizes an uploaded log and recommends for one material.
func (s *RecommendationService) RecommendCSV(ctx context.Context, r io.Reader, req RecommendationRequest) (*RecommendationResult, error) {
	normalized, err := s.forecasts.NormalizeCSV(r)
	if err != nil {
		return nil, err
	}
	return s.Recommend(ctx, normalized, req)
}

// RecommendBatch fans out over every material in the history with bounded
// concurrency. A failing material contributes an error entry instead of
// sinking the batch; the output is ordered like normalized.Materials.
func (s *RecommendationService) RecommendBatch(ctx context.Context, normalized *usage.Result, req RecommendationRequest) ([]RecommendationResult, error) {
	materials := normalized.Materials
	results := make([]RecommendationResult, len(materials))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentForecasts)

	for i, material := range materials {
		i, material := i, material
		g.Go(func() error {
			perReq := req
			perReq.Material = material

			res, err := s.Recommend(gctx, normalized, perReq)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Str("material", material).Msg("batch recommendation failed for material")
				results[i] = RecommendationResult{Material: material, Error: err.Error()}
				return nil
			}
			results[i] = *res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func buildParams(pctx domain.ProjectContext, reliability map[string]float64) procurement.Params {
	params := procurement.Params{
		LeadTimeDays:          pctx.LeadTimeDays,
		CurrentInventory:      pctx.CurrentInventory,
		HistoricalReliability: reliability,
	}
	if pctx.SupplierReliabilityPercent != nil {
		v := *pctx.SupplierReliabilityPercent
		params.SupplierReliability = &v
	}
	return params
}
