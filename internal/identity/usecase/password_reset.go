package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type PasswordResetInput struct {
	Identifier string `validate:"required,max=255"`
	Code       string `validate:"required,len=6,numeric"`
	Password   string `validate:"required,password"`
}

// PasswordReset sets a new password after the reset code is confirmed,
// then revokes every refresh session the account holds.
func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	identifier, err := s.canonicalize(in.Identifier)
	if err != nil {
		return err
	}

	res, err := s.otpGeneral.Verify(ctx, identifier, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify reset code", "error", err)
		return goerror.NewServer(err)
	}
	if err := mapVerifyStatus(res); err != nil {
		return err
	}
	if res.AccountID == 0 {
		return goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
	}

	user, err := s.repoDB.GetUserByID(ctx, res.AccountID)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
		}
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", res.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	passwordHash, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateUserPassword(ctx, user.ID, string(passwordHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.RevokeAllSessions(ctx, user.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke all sessions", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	publish(ctx, "password.changed", func() error {
		return s.repoMessaging.PublishPasswordChanged(ctx, PasswordChangedEvent{
			UserID:     user.ID,
			Identifier: user.PrimaryIdentifier(),
		})
	})

	return nil
}
