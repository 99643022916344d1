// Package cache provides a Redis-backed TTL cache for computed workflow
// metrics. Metrics are reporting, not control, logic, so a slightly stale
// snapshot is acceptable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/hvac-workflow/internal/workflow"
)

// MetricsCache caches WorkflowMetrics keyed by query window. A nil cache or
// nil client is a no-op: every lookup misses and every store is dropped.
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewMetricsCache constructs the cache. ttl <= 0 disables storing.
func NewMetricsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *MetricsCache {
	return &MetricsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached metrics for the window, if present.
func (c *MetricsCache) Get(ctx context.Context, window workflow.Window) (*workflow.WorkflowMetrics, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, windowKey(window)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Warn("metrics cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var metrics workflow.WorkflowMetrics
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return nil, false
	}
	return &metrics, true
}

// Set stores metrics under the window key with the configured TTL.
func (c *MetricsCache) Set(ctx context.Context, window workflow.Window, metrics workflow.WorkflowMetrics) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, windowKey(window), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("metrics cache write failed", zap.Error(err))
	}
}

func windowKey(window workflow.Window) string {
	return fmt.Sprintf("workflow:metrics:%d:%d", window.Start.Unix(), window.End.Unix())
}
