// Package cache keeps the TTL-bounded latest-telemetry record and the
// last-seen mark per robot in Redis. Both are best-effort: staleness is
// bounded by the TTL, not by any coordination with the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

type RedisOpts struct {
	Addr, Password, Namespace string

	DB      int
	Timeout time.Duration
}

type TelemetryCache struct {
	rdb      *redis.Client
	nsPrefix string
}

func NewTelemetryCache(o RedisOpts) *TelemetryCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.Timeout,
		ReadTimeout:  o.Timeout,
		WriteTimeout: o.Timeout,
	})
	ns := o.Namespace
	if ns == "" {
		ns = "fleet"
	}
	return &TelemetryCache{rdb: rdb, nsPrefix: ns}
}

// Latest entries are keyed by (organization, robot), like every store query,
// so a cache hit can never cross a tenant boundary.
func (c *TelemetryCache) latestKey(robotID, organizationID string) string {
	return fmt.Sprintf("%s:telemetry:latest:%s:%s", c.nsPrefix, organizationID, robotID)
}

func (c *TelemetryCache) lastSeenKey(robotID string) string {
	return fmt.Sprintf("%s:robot:lastseen:%s", c.nsPrefix, robotID)
}

func (c *TelemetryCache) SetLatest(ctx context.Context, robotID, organizationID string, rec *model.RobotTelemetryRecord, ttl time.Duration) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.latestKey(robotID, organizationID), b, ttl).Err()
}

// GetLatest returns (nil, false, nil) on a plain miss; the error return is
// reserved for transport failures.
func (c *TelemetryCache) GetLatest(ctx context.Context, robotID, organizationID string) (*model.RobotTelemetryRecord, bool, error) {
	key := c.latestKey(robotID, organizationID)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache read failed (%s): %w", key, err)
	}
	var rec model.RobotTelemetryRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, false, fmt.Errorf("cache entry corrupt (%s): %w", key, err)
	}
	return &rec, true, nil
}

// SetLastSeen is last-write-wins: concurrent ingestions race and the most
// recently applied write sticks, not the highest timestamp.
func (c *TelemetryCache) SetLastSeen(ctx context.Context, robotID string, t time.Time) error {
	return c.rdb.Set(ctx, c.lastSeenKey(robotID), t.UTC().Format(time.RFC3339Nano), 0).Err()
}

func (c *TelemetryCache) Close() error { return c.rdb.Close() }
