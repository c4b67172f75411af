package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/valueobject"
)

type ConsumePasswordChangedInput struct {
	UserID     int64  `validate:"required,gt=0"`
	Identifier string `validate:"required"`
}

// ConsumePasswordChanged posts a security notice after a password reset
// or change so the owner can react to a takeover.
func (s *Usecase) ConsumePasswordChanged(ctx context.Context, in ConsumePasswordChangedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePasswordChanged")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid password changed payload", "error", err)
		return nil
	}

	data := valueobject.JSONMap{"changed_at": s.clock.Now().Format("2006-01-02 15:04:05 MST")}

	if !strings.Contains(in.Identifier, "@") {
		s.createFeedNotice(ctx, in.UserID, entity.TriggerKeyPasswordChanged, data)
		return nil
	}

	tplData := s.baseEmailTemplateData()
	tplData["changed_at"] = data["changed_at"]

	s.sendEmailNotice(ctx, emailNoticeInput{
		UserID:       in.UserID,
		Email:        in.Identifier,
		TriggerKey:   entity.TriggerKeyPasswordChanged,
		TemplateData: tplData,
		FeedData:     data,
	})

	return nil
}
