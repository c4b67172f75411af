package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type LogoutInput struct {
	RefreshToken string `validate:"required,max=128"`
}

// Logout revokes the presented refresh session. The access token stays
// valid until it expires.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if _, err := s.authenticated(ctx); err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.RevokeSession(ctx, string(tokenHash)); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil
		}
		slog.ErrorContext(ctx, "failed to repo revoke session", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// LogoutAll revokes every refresh session the authenticated user holds.
func (s *Usecase) LogoutAll(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "LogoutAll")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.RevokeAllSessions(ctx, clm.AccountID); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke all sessions", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
