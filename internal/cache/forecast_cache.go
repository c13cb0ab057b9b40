package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/predichain/backend-go/internal/config"
	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/forecast"
	"github.com/redis/go-redis/v9"
)

const (
	forecastKeyPrefix    = "forecast:monthly"
	forecastScanBatchLen = 100
)

// ForecastCache stores finished forecast results keyed by a fingerprint of the
// exact input series, so a re-upload of identical history is a cache hit and
// any change in the data is automatically a miss.
type ForecastCache interface {
	Get(ctx context.Context, key string) (*forecast.Result, bool, error)
	Set(ctx context.Context, key string, result *forecast.Result) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, key string) (*forecast.Result, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result forecast.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &result, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, key string, result *forecast.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchLen)
}

func (n *noopForecastCache) Get(context.Context, string) (*forecast.Result, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(context.Context, string, *forecast.Result) error { return nil }

func (n *noopForecastCache) InvalidateAll(context.Context) error { return nil }

// BuildForecastKey fingerprints the material, horizon, and the full normalized
// daily series. Order matters, so callers pass the series already sorted.
func BuildForecastKey(material string, horizonMonths int, daily []domain.DailyUsage) string {
	h := sha1.New()
	h.Write([]byte(material))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(horizonMonths)))
	for _, d := range daily {
		fmt.Fprintf(h, "|%s:%s:%g:%g:%g:%g:%g:%g:%g",
			d.Material, d.Date.Format("2006-01-02"), d.QuantityUsed,
			d.Regressors.WeatherCondition, d.Regressors.RegionalRiskLevel,
			d.Regressors.DeliveryDelays, d.Regressors.AvgDeliveryTimeDays,
			d.Regressors.ContractorTeamSize, d.Regressors.ShiftWorkHours)
	}
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, hex.EncodeToString(h.Sum(nil)))
}
