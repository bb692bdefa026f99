package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"chovha/internal/events"
)

// publish forwards a domain event and logs, rather than returns, failures.
func publish(ctx context.Context, pub events.Publisher, log logrus.FieldLogger, key string, data any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, key, data); err != nil {
		log.WithError(err).WithField("routing_key", key).Warn("publish event failed")
	}
}
