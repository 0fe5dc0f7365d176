// FilePath: internal/cache/cache.go

// Package cache keeps recently served downsampled chart payloads in
// Redis. Downsampling is a pure function of the series and filter, so a
// cached payload is valid until new datapoints arrive for the serial.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hivetool/apiaryhub/internal/config"
	"github.com/hivetool/apiaryhub/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// chartFilters enumerates every cacheable window so invalidation can
// clear all keys of a serial without a scan.
var chartFilters = []models.TimeFilter{
	models.FilterDay, models.FilterWeek, models.FilterMonth,
	models.Filter3Months, models.Filter6Months,
	models.FilterYear, models.Filter2Years, models.FilterAllTime,
}

type ChartCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChartCache(cfg config.RedisConfig) *ChartCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &ChartCache{client: client, ttl: cfg.ChartTTL}
}

func chartKey(serial string, filter models.TimeFilter) string {
	return fmt.Sprintf("chart:%s:%s", serial, filter)
}

// Get returns the cached payload for (serial, filter) and whether it
// was present. Cache errors degrade to a miss.
func (c *ChartCache) Get(ctx context.Context, serial string, filter models.TimeFilter) ([]*models.Datapoint, bool) {
	data, err := c.client.Get(ctx, chartKey(serial, filter)).Bytes()
	if err != nil {
		if err != redis.Nil {
			nuts.L.Warnf("[ChartCache] Get failed for %s/%s: %v", serial, filter, err)
		}
		return nil, false
	}

	var points []*models.Datapoint
	if err := json.Unmarshal(data, &points); err != nil {
		nuts.L.Warnf("[ChartCache] Corrupt cache entry for %s/%s: %v", serial, filter, err)
		return nil, false
	}
	return points, true
}

func (c *ChartCache) Set(ctx context.Context, serial string, filter models.TimeFilter, points []*models.Datapoint) {
	data, err := json.Marshal(points)
	if err != nil {
		nuts.L.Warnf("[ChartCache] Marshal failed for %s/%s: %v", serial, filter, err)
		return
	}
	if err := c.client.Set(ctx, chartKey(serial, filter), data, c.ttl).Err(); err != nil {
		nuts.L.Warnf("[ChartCache] Set failed for %s/%s: %v", serial, filter, err)
	}
}

// Invalidate drops all cached windows of a serial, called after a new
// datapoint lands or the device is deleted.
func (c *ChartCache) Invalidate(ctx context.Context, serial string) {
	keys := make([]string, 0, len(chartFilters))
	for _, filter := range chartFilters {
		keys = append(keys, chartKey(serial, filter))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		nuts.L.Warnf("[ChartCache] Invalidate failed for %s: %v", serial, err)
	}
}

func (c *ChartCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ChartCache) Close() error {
	return c.client.Close()
}
