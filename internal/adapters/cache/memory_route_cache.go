package cache

import (
	"context"
	"crew-route-service/internal/domain"
	"strings"
	"sync"
	"time"
)

type memoEntry struct {
	route   domain.Route
	expires time.Time
}

// MemoryRouteCache is a process-local RouteCache used when Redis is not configured.
type MemoryRouteCache struct {
	mu  sync.Mutex
	m   map[string]memoEntry
	ttl time.Duration
	now func() time.Time
}

func NewMemoryRouteCache(ttl time.Duration) *MemoryRouteCache {
	if ttl <= 0 {
		ttl = defaultRouteTTL
	}
	return &MemoryRouteCache{m: map[string]memoEntry{}, ttl: ttl, now: time.Now}
}

func (c *MemoryRouteCache) Get(ctx context.Context, companyID, crewID, date string) (domain.Route, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := routeKey(companyID, date, crewID)
	e, ok := c.m[key]
	if !ok {
		return domain.Route{}, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.m, key)
		return domain.Route{}, false, nil
	}
	return e.route.Clone(), true, nil
}

func (c *MemoryRouteCache) Put(ctx context.Context, route domain.Route) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.m[routeKey(route.CompanyID, route.Date, route.CrewID)] = memoEntry{
		route:   route.Clone(),
		expires: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryRouteCache) Invalidate(ctx context.Context, companyID, date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := routeKey(companyID, date, "")
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	return nil
}
