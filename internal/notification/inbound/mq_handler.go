package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aruna-labs/identra/internal/notification/usecase"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/messaging"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

// ensureCorrelationID propagates the publisher's correlation id, or mints
// one for messages that arrived without it.
func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) UserRegistered(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserRegistered")
	defer span.End()

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse user registered message", "error", err)
		return nil
	}

	if err := h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
		UserID:     payload.UserID,
		Identifier: payload.Identifier,
		FullName:   payload.FullName,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user registered", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) PasswordChanged(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordChanged")
	defer span.End()

	var payload event.PasswordChangedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse password changed message", "error", err)
		return nil
	}

	if err := h.uc.ConsumePasswordChanged(ctx, usecase.ConsumePasswordChangedInput{
		UserID:     payload.UserID,
		Identifier: payload.Identifier,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume password changed", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) CredentialChanged(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "CredentialChanged")
	defer span.End()

	var payload event.CredentialChangedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse credential changed message", "error", err)
		return nil
	}

	if err := h.uc.ConsumeCredentialChanged(ctx, usecase.ConsumeCredentialChangedInput{
		UserID:        payload.UserID,
		OldIdentifier: payload.OldIdentifier,
		NewIdentifier: payload.NewIdentifier,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume credential changed", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
