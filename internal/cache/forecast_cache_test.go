package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() []domain.DailyUsage {
	return []domain.DailyUsage{
		{Material: "cement", Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), QuantityUsed: 100},
		{Material: "cement", Date: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), QuantityUsed: 120},
	}
}

func TestBuildForecastKeyDeterministic(t *testing.T) {
	a := BuildForecastKey("cement", 3, sampleSeries())
	b := BuildForecastKey("cement", 3, sampleSeries())
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, forecastKeyPrefix+":"))
}

func TestBuildForecastKeyDiscriminates(t *testing.T) {
	base := BuildForecastKey("cement", 3, sampleSeries())

	assert.NotEqual(t, base, BuildForecastKey("sand", 3, sampleSeries()))
	assert.NotEqual(t, base, BuildForecastKey("cement", 6, sampleSeries()))

	changed := sampleSeries()
	changed[1].QuantityUsed = 121
	assert.NotEqual(t, base, BuildForecastKey("cement", 3, changed))

	shifted := sampleSeries()
	shifted[1].Regressors.DeliveryDelays = 1
	assert.NotEqual(t, base, BuildForecastKey("cement", 3, shifted))
}

func TestNoopForecastCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopForecastCache()

	_, found, err := c.Get(ctx, "anything")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, c.Set(ctx, "anything", nil))
	require.NoError(t, c.InvalidateAll(ctx))
}
