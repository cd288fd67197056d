package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/redis/go-redis/v9"
)

const zoneVersionKey = "geofence:zones:version"

// zoneCache stores active zone sets under a version prefix. Invalidate bumps
// the version, which orphans every set written under the old one; the TTL
// reclaims them.
type zoneCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewZoneCache(client *redis.Client, ttl time.Duration) geofence.ZoneCache {
	return &zoneCache{client: client, ttl: ttl}
}

// NewClient connects to the Redis server at url (redis://...).
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func (c *zoneCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, zoneVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func zoneSetKey(version int64, projectID *string) string {
	if projectID == nil {
		return fmt.Sprintf("geofence:zones:v%d:global", version)
	}
	return fmt.Sprintf("geofence:zones:v%d:project:%s", version, *projectID)
}

// GetOrLoad implements geofence.ZoneCache. Redis failures fall back to load;
// only load errors are returned.
func (c *zoneCache) GetOrLoad(ctx context.Context, projectID *string, load func(ctx context.Context) ([]geofence.Zone, error)) ([]geofence.Zone, error) {
	version, err := c.version(ctx)
	if err != nil {
		slog.WarnContext(ctx, "zone cache unavailable, reading from store", "error", err)
		return load(ctx)
	}
	key := zoneSetKey(version, projectID)

	zones, hit, err := c.get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "zone cache read failed", "key", key, "error", err)
	}
	if hit {
		return zones, nil
	}

	zones, err = load(ctx)
	if err != nil {
		return nil, err
	}

	// Written under the version read before load, so an Invalidate that raced
	// with load leaves this set unreachable.
	if err := c.set(ctx, key, zones); err != nil {
		slog.WarnContext(ctx, "zone cache write failed", "key", key, "error", err)
	}
	return zones, nil
}

func (c *zoneCache) get(ctx context.Context, key string) ([]geofence.Zone, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var zones []geofence.Zone
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, false, fmt.Errorf("decode cached zones: %w", err)
	}
	return zones, true, nil
}

func (c *zoneCache) set(ctx context.Context, key string, zones []geofence.Zone) error {
	if zones == nil {
		zones = []geofence.Zone{}
	}
	data, err := json.Marshal(zones)
	if err != nil {
		return fmt.Errorf("encode zones: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate implements geofence.ZoneCache.
func (c *zoneCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, zoneVersionKey).Err(); err != nil {
		return fmt.Errorf("bump zone cache version: %w", err)
	}
	return nil
}
