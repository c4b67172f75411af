package inbound

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/goroutine"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/messaging"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/shared/event"
)

// RegisterMQConsumer subscribes the identity lifecycle consumers listed in
// config. Each consumer runs on the shared runner and reconnects with
// capped backoff when the broker drops it.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	runner *goroutine.Runner,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	handler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enabled := cfg.GetArray("modules.notification.consumer_names")

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.UserRegisteredNotificationConsumer,
			topic:   event.UserRegisteredDestination,
			handler: handler.UserRegistered,
		},
		{
			name:    event.PasswordChangedNotificationConsumer,
			topic:   event.PasswordChangedDestination,
			handler: handler.PasswordChanged,
		},
		{
			name:    event.CredentialChangedNotificationConsumer,
			topic:   event.CredentialChangedDestination,
			handler: handler.CredentialChanged,
		},
	}

	for _, consumer := range consumers {
		if len(enabled) > 0 && !slices.Contains(enabled, consumer.name) {
			continue
		}

		runner.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "running notification consumer", "consumer", consumer.name)

			backoff := retry.WithCappedDuration(30*time.Second, retry.NewFibonacci(time.Second))
			return retry.Do(pCtx, backoff, func(rCtx context.Context) error {
				err := messenger.Consume(rCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.name),
					messaging.WithQueueGroup(consumer.name),
					messaging.WithGroup(consumer.name),
					messaging.WithSubscription(consumer.name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
				if err != nil && rCtx.Err() == nil {
					slog.ErrorContext(rCtx, "notification consumer stopped, retrying", "consumer", consumer.name, "error", err)
					return retry.RetryableError(err)
				}
				return err
			})
		})
	}
}
