package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/valueobject"
)

type ConsumeUserRegisteredInput struct {
	UserID     int64  `validate:"required,gt=0"`
	Identifier string `validate:"required"`
	FullName   string `validate:"required,min=2,max=100"`
}

// ConsumeUserRegistered welcomes a freshly verified account. Malformed
// payloads are dropped, not retried: redelivery cannot fix them.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid user registered payload", "error", err)
		return nil
	}

	data := valueobject.JSONMap{"full_name": in.FullName}

	// Phone-registered accounts have no address to welcome; they only get
	// the in-app feed entry. Email accounts get one feed entry tied to the
	// welcome mail's delivery log.
	if !strings.Contains(in.Identifier, "@") {
		s.createFeedNotice(ctx, in.UserID, entity.TriggerKeyUserWelcome, data)
		return nil
	}

	tplData := s.baseEmailTemplateData()
	tplData["full_name"] = in.FullName

	s.sendEmailNotice(ctx, emailNoticeInput{
		UserID:       in.UserID,
		Email:        in.Identifier,
		TriggerKey:   entity.TriggerKeyUserWelcome,
		TemplateData: tplData,
		FeedData:     data,
	})

	return nil
}
