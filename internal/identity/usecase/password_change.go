package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type PasswordChangeInput struct {
	OldPassword string `validate:"required,password"`
	NewPassword string `validate:"required,password,nefield=OldPassword"`
}

// PasswordChange replaces the authenticated user's password and revokes
// every other refresh session.
func (s *Usecase) PasswordChange(ctx context.Context, in PasswordChangeInput) error {
	ctx, span := s.startSpan(ctx, "PasswordChange")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.AccountID)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("Account not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	info, err := s.repoDB.GetUserLoginInfo(ctx, user.PrimaryIdentifier())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !s.password.Verify(info.Password, in.OldPassword) {
		return goerror.NewBusiness("Current password is incorrect", goerror.CodeUnauthorized)
	}

	passwordHash, err := s.password.Hash(in.NewPassword)
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
