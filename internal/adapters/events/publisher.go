package events

import (
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/ports"
	"errors"
)

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, evt domain.RouteEvent) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []ports.RouteEventPublisher

func (m Multi) Publish(ctx context.Context, evt domain.RouteEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
