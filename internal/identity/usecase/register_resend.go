package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type RegisterResendInput struct {
	Identifier string `validate:"required,max=255"`
}

type RegisterResendOutput struct {
	Identifier string
	ExpiresAt  time.Time
}

// RegisterResend re-issues the registration code. The previous code is
// superseded; the rate limiter caps how often this can be called.
func (s *Usecase) RegisterResend(ctx context.Context, in RegisterResendInput) (*RegisterResendOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterResend")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	identifier, err := s.canonicalize(in.Identifier)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByIdentifier(ctx, identifier.String())
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("No pending registration for this identifier", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get user by identifier", "error", err)
		return nil, goerror.NewServer(err)
	}
	if user.Status.Ensure() != entity.UserStatusUnverified {
		return nil, goerror.NewBusiness("Account is already verified", goerror.CodeConflict)
	}

	res, err := s.otpGeneral.Issue(ctx, identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue registration code", "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := mapIssueStatus(res); err != nil {
		return nil, err
	}

	return &RegisterResendOutput{Identifier: otp.Mask(identifier), ExpiresAt: res.ExpiresAt}, nil
}
