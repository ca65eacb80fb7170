package events

import (
	"context"
	"crew-route-service/internal/domain"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes route events over Redis Pub/Sub on route:{id}.
type RedisPublisher struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, timeout: 2 * time.Second}
}

func NewRedisPublisherFromURL(url string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis publisher: parse url: %w", err)
	}
	return NewRedisPublisher(redis.NewClient(opt)), nil
}

func ChannelName(routeID string) string { return "route:" + routeID }

func (p *RedisPublisher) Publish(ctx context.Context, evt domain.RouteEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("redis publish: encode event: %w", err)
	}
	if err := p.rdb.Publish(ctx, ChannelName(evt.RouteID), data).Err(); err != nil {
		return fmt.Errorf("redis publish route=%s: %w", evt.RouteID, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.rdb.Close() }
