package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type PasswordForgotInput struct {
	Identifier string `validate:"required,max=255"`
}

type PasswordForgotOutput struct {
	Identifier string
	ExpiresAt  time.Time
}

// PasswordForgot sends a reset code. Unknown identifiers get the same
// response so the endpoint does not reveal which accounts exist.
func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) (*PasswordForgotOutput, error) {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	identifier, err := s.canonicalize(in.Identifier)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByIdentifier(ctx, identifier.String())
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by identifier", "error", err)
		return nil, goerror.NewServer(err)
	}

	if user != nil {
		res, err := s.otpGeneral.Issue(ctx, identifier)
		if err != nil {
			slog.ErrorContext(ctx, "failed to issue reset code", "error", err)
			return nil, goerror.NewServer(err)
		}
		if err := mapIssueStatus(res); err != nil {
			return nil, err
		}
		return &PasswordForgotOutput{Identifier: otp.Mask(identifier), ExpiresAt: res.ExpiresAt}, nil
	}

	return &PasswordForgotOutput{
		Identifier: otp.Mask(identifier),
		ExpiresAt:  s.clock.Now().Add(s.otpGeneral.TTL()),
	}, nil
}
