package service

import (
	"context"

	"floor-manager/floor-svc/internal/domain"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// MultiGateway fans one event out to every configured binding.
type MultiGateway []NotificationGateway

func (m MultiGateway) Publish(ctx context.Context, event domain.Event) error {
	var result *multierror.Error
	for _, gw := range m {
		if err := gw.Publish(ctx, event); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type NopGateway struct{}

func (NopGateway) Publish(context.Context, domain.Event) error { return nil }

// emitter publishes committed changes. A failed publish cannot undo the commit,
// so it is logged and dropped.
type emitter struct {
	gateway NotificationGateway
	log     logrus.FieldLogger
}

func newEmitter(gateway NotificationGateway, log logrus.FieldLogger) emitter {
	if gateway == nil {
		gateway = NopGateway{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return emitter{gateway: gateway, log: log}
}

func (e emitter) emit(ctx context.Context, events ...domain.Event) {
	for _, event := range events {
		if err := e.gateway.Publish(ctx, event); err != nil {
			e.log.WithFields(logrus.Fields{
				"event":    event.Type,
				"table_id": event.TableID,
				"error":    err,
			}).Warn("failed to publish event")
			continue
		}
		e.log.WithFields(logrus.Fields{"event": event.Type, "table_id": event.TableID}).Debug("event published")
	}
}
