// backend-go/internal/service/forecast_service.go
package service

import (
	"context"
	"io"

	"github.com/predichain/backend-go/internal/cache"
	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/forecast"
	"github.com/predichain/backend-go/internal/pipeline/usage"
	"github.com/rs/zerolog/log"
)

// ForecastService normalizes uploaded usage logs and drives the forecast
// adapter, with a cache keyed on the exact input series in front of it.
type ForecastService struct {
	adapter *forecast.Adapter
	cache   cache.ForecastCache
}

func NewForecastService(adapter *forecast.Adapter, c cache.ForecastCache) *ForecastService {
	if c == nil {
		c = cache.NewNoopForecastCache()
	}
	return &ForecastService{adapter: adapter, cache: c}
}

// NormalizeCSV reads and normalizes a raw usage log.
func (s *ForecastService) NormalizeCSV(r io.Reader) (*usage.Result, error) {
	header, rows, err := usage.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return usage.Normalize(header, rows)
}

// Forecast predicts monthly demand for one material from normalized history.
// Cache failures degrade to a recompute, never to an error.
func (s *ForecastService) Forecast(ctx context.Context, daily []domain.DailyUsage, material string, horizonMonths int) (*forecast.Result, error) {
	key := cache.BuildForecastKey(material, horizonMonths, daily)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("forecast cache read failed")
	} else if ok {
		return cached, nil
	}

	result, err := s.adapter.Forecast(ctx, daily, material, horizonMonths)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		log.Warn().Err(err).Msg("forecast cache write failed")
	}
	return result, nil
}

// ForecastCSV is the one-shot path behind the upload-and-forecast endpoint.
func (s *ForecastService) ForecastCSV(ctx context.Context, r io.Reader, material string, horizonMonths int) (*forecast.Result, *usage.Result, error) {
	normalized, err := s.NormalizeCSV(r)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.Forecast(ctx, normalized.Daily, material, horizonMonths)
	if err != nil {
		return nil, nil, err
	}
	return result, normalized, nil
}
