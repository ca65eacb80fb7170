package cache

import (
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRouteTTL = 12 * time.Hour

// RedisRouteCache memoizes solved routes in Redis as JSON.
//
// Each route lives under route:{company}:{date}:{crew}; a per-day set
// routes:{company}:{date} tracks the keys so a whole day can be dropped.
type RedisRouteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRouteCache(rdb *redis.Client, ttl time.Duration) *RedisRouteCache {
	if ttl <= 0 {
		ttl = defaultRouteTTL
	}
	return &RedisRouteCache{rdb: rdb, ttl: ttl}
}

// NewRedisRouteCacheFromURL parses a redis:// URL and connects lazily.
func NewRedisRouteCacheFromURL(url string, ttl time.Duration) (*RedisRouteCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("route cache: parse redis url: %w", err)
	}
	return NewRedisRouteCache(redis.NewClient(opt), ttl), nil
}

func routeKey(companyID, date, crewID string) string {
	return "route:" + companyID + ":" + date + ":" + crewID
}

func dayKey(companyID, date string) string {
	return "routes:" + companyID + ":" + date
}

func (c *RedisRouteCache) Get(ctx context.Context, companyID, crewID, date string) (_ domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	data, err := c.rdb.Get(ctx, routeKey(companyID, date, crewID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Route{}, false, nil
	}
	if err != nil {
		return domain.Route{}, false, fmt.Errorf("route cache get: %w", err)
	}

	var r domain.Route
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Route{}, false, fmt.Errorf("route cache get: decode: %w", err)
	}
	return r, true, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, route domain.Route) (err error) {
	defer obs.Time(ctx, "route.cache.Put")(&err)

	if route.CompanyID == "" || route.CrewID == "" || route.Date == "" {
		return errors.New("route cache put: company, crew and date are required")
	}

	data, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("route cache put: encode: %w", err)
	}

	key := routeKey(route.CompanyID, route.Date, route.CrewID)
	day := dayKey(route.CompanyID, route.Date)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, c.ttl)
		pipe.SAdd(ctx, day, key)
		pipe.Expire(ctx, day, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("route cache put: %w", err)
	}
	return nil
}

func (c *RedisRouteCache) Invalidate(ctx context.Context, companyID, date string) (err error) {
	defer obs.Time(ctx, "route.cache.Invalidate")(&err)

	day := dayKey(companyID, date)
	keys, err := c.rdb.SMembers(ctx, day).Result()
	if err != nil {
		return fmt.Errorf("route cache invalidate: %w", err)
	}

	if err := c.rdb.Del(ctx, append(keys, day)...).Err(); err != nil {
		return fmt.Errorf("route cache invalidate: %w", err)
	}
	return nil
}

func (c *RedisRouteCache) Close() error { return c.rdb.Close() }
