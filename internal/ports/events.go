package ports

import (
	"context"
	"crew-route-service/internal/domain"
)

type RouteEventPublisher interface {
	Publish(ctx context.Context, evt domain.RouteEvent) error
}

// ReportArchive stores finished-route analytics documents.
type ReportArchive interface {
	Put(ctx context.Context, key string, body []byte) error
}
