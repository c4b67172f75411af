package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type LoginOTPInput struct {
	Identifier string `validate:"required,max=255"`
}

type LoginOTPOutput struct {
	Identifier string
	ExpiresAt  time.Time
}

// LoginOTP starts a passwordless login by sending a one-time code to a
// registered identifier. Unknown identifiers get the same response so the
// endpoint does not reveal which accounts exist.
func (s *Usecase) LoginOTP(ctx context.Context, in LoginOTPInput) (*LoginOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "LoginOTP")
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
		if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
			return nil, err
		}

		res, err := s.otpGeneral.Issue(ctx, identifier)
		if err != nil {
			slog.ErrorContext(ctx, "failed to issue login code", "error", err)
			return nil, goerror.NewServer(err)
		}
		if err := mapIssueStatus(res); err != nil {
			return nil, err
		}
		return &LoginOTPOutput{Identifier: otp.Mask(identifier), ExpiresAt: res.ExpiresAt}, nil
	}

	return &LoginOTPOutput{
		Identifier: otp.Mask(identifier),
		ExpiresAt:  s.clock.Now().Add(s.otpGeneral.TTL()),
	}, nil
}

type LoginOTPVerifyInput struct {
	Identifier string `validate:"required,max=255"`
	Code       string `validate:"required,len=6,numeric"`
}

type LoginOTPVerifyOutput struct {
	AccessToken  string
	RefreshToken string
}

// LoginOTPVerify completes a passwordless login.
func (s *Usecase) LoginOTPVerify(ctx context.Context, in LoginOTPVerifyInput) (*LoginOTPVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "LoginOTPVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	identifier, err := s.canonicalize(in.Identifier)
	if err != nil {
		return nil, err
	}

	res, err := s.otpGeneral.Verify(ctx, identifier, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify login code", "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := mapVerifyStatus(res); err != nil {
		return nil, err
	}
	if res.AccountID == 0 {
		return nil, goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
	}

	user, err := s.repoDB.GetUserByID(ctx, res.AccountID)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
		}
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", res.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	access, refresh, err := s.issueSession(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginOTPVerifyOutput{AccessToken: access, RefreshToken: refresh}, nil
}
