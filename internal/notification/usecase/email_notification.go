package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/mail"
	"github.com/aruna-labs/identra/internal/pkg/valueobject"
)

type emailNoticeInput struct {
	UserID       int64
	Email        string
	TriggerKey   entity.TriggerKey
	TemplateData map[string]any
	FeedData     valueobject.JSONMap
}

// sendEmailNotice persists a feed item with a queued delivery log, then
// sends the email. Failures are recorded on the log, never returned: a
// notice that cannot be delivered must not nack the triggering event.
func (s *Usecase) sendEmailNotice(ctx context.Context, in emailNoticeInput) {
	tpl := s.getTemplate(ctx, in.TriggerKey, entity.ChannelEmail)
	if tpl == nil {
		return
	}

	enabled, err := s.repoDB.ChannelEnabled(ctx, in.UserID, tpl.CategoryID, entity.ChannelEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check email preference", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", err)
		return
	}
	if !enabled {
		return
	}

	subject, err := s.renderTemplate("subject", tpl.Subject, in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email subject", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", err)
		return
	}
	body, err := s.renderTemplate("body", tpl.Body, in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", err)
		return
	}

	item := entity.CreateFeedItem{
		ID:         s.uid.Generate(),
		UserID:     in.UserID,
		CategoryID: tpl.CategoryID,
		TriggerKey: in.TriggerKey,
		Data:       in.FeedData,
		Metadata:   valueobject.JSONMap{},
	}
	dl := entity.CreateDeliveryLog{
		FeedItemID: item.ID,
		Channel:    entity.ChannelEmail,
		Status:     entity.DeliveryStatusQueued,
	}

	logID, err := s.repoDB.CreateFeedItemWithDeliveryLog(ctx, item, dl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create feed item with delivery log", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", err)
		return
	}

	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Second))
	mailErr := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  subject,
			HTMLBody: body,
		}); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if mailErr == nil {
		up := entity.UpdateDeliveryLog{
			ID:               logID,
			Status:           entity.DeliveryStatusSent,
			ProviderResponse: valueobject.JSONMap{},
		}
		if err := s.repoDB.UpdateDeliveryLog(ctx, up); err != nil {
			slog.ErrorContext(ctx, "failed to repo update delivery log sent", "log_id", logID, "error", err)
		}
		return
	}

	nextRetry := s.clock.Now().Add(s.cfg.GetMinute("modules.notification.redeliver_after_minutes"))
	up := entity.UpdateDeliveryLog{
		ID:               logID,
		Status:           entity.DeliveryStatusFailed,
		ProviderResponse: valueobject.JSONMap{"error": mailErr.Error()},
		NextRetryAt:      &nextRetry,
	}
	if err := s.repoDB.UpdateDeliveryLog(ctx, up); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log failed", "log_id", logID, "error", err)
	}

	slog.ErrorContext(ctx, "failed to send notice email", "log_id", logID, "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", mailErr)
}

// createFeedNotice writes an in-app feed entry; missing template or
// muted preference drops the notice.
func (s *Usecase) createFeedNotice(ctx context.Context, userID int64, tk entity.TriggerKey, data valueobject.JSONMap) {
	tpl := s.getTemplate(ctx, tk, entity.ChannelInApp)
	if tpl == nil {
		return
	}

	enabled, err := s.repoDB.ChannelEnabled(ctx, userID, tpl.CategoryID, entity.ChannelInApp)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check in_app preference", "user_id", userID, "trigger_key", tk.String(), "error", err)
		return
	}
	if !enabled {
		return
	}

	item := entity.CreateFeedItem{
		ID:         s.uid.Generate(),
		UserID:     userID,
		CategoryID: tpl.CategoryID,
		TriggerKey: tk,
		Data:       data,
		Metadata:   valueobject.JSONMap{},
	}
	if err := s.repoDB.CreateFeedItem(ctx, item); err != nil {
		slog.ErrorContext(ctx, "failed to repo create feed item", "user_id", userID, "trigger_key", tk.String(), "error", err)
	}
}
