package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/valueobject"
)

type ConsumeCredentialChangedInput struct {
	UserID        int64  `validate:"required,gt=0"`
	OldIdentifier string `validate:"required"`
	NewIdentifier string `validate:"required"`
}

// ConsumeCredentialChanged warns the previous address when a login
// identifier is swapped. The notice goes to the OLD identifier: the new
// one already proved control via the change-verification code.
func (s *Usecase) ConsumeCredentialChanged(ctx context.Context, in ConsumeCredentialChangedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeCredentialChanged")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid credential changed payload", "error", err)
		return nil
	}

	masked := otp.Mask(otp.Identifier(in.NewIdentifier))
	data := valueobject.JSONMap{"new_identifier": masked}

	if !strings.Contains(in.OldIdentifier, "@") {
		s.createFeedNotice(ctx, in.UserID, entity.TriggerKeyCredentialChanged, data)
		return nil
	}

	tplData := s.baseEmailTemplateData()
	tplData["new_identifier"] = masked

	s.sendEmailNotice(ctx, emailNoticeInput{
		UserID:       in.UserID,
		Email:        in.OldIdentifier,
		TriggerKey:   entity.TriggerKeyCredentialChanged,
		TemplateData: tplData,
		FeedData:     data,
	})

	return nil
}
