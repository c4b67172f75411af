package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type RefreshTokenInput struct {
	RefreshToken string `validate:"required,max=128"`
}

type RefreshTokenOutput struct {
	AccessToken  string
	RefreshToken string
}

// RefreshToken rotates a refresh session: the presented token is retired
// and a new pair is issued. A revoked or already-rotated token revokes the
// whole account's sessions, since its reuse means the token leaked.
func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*RefreshTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	sess, err := s.repoDB.GetSessionByTokenHash(ctx, string(tokenHash))
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Invalid refresh token", goerror.CodeUnauthorized)
		}
		slog.ErrorContext(ctx, "failed to repo get session", "error", err)
		return nil, goerror.NewServer(err)
	}

	if sess.Revoked || sess.ReplacedByID != 0 {
		slog.WarnContext(ctx, "refresh token reuse detected", "user_id", sess.UserID, "session_id", sess.SessionID)
		if err := s.repoDB.RevokeAllSessions(ctx, sess.UserID); err != nil {
			slog.ErrorContext(ctx, "failed to repo revoke all sessions", "user_id", sess.UserID, "error", err)
		}
		return nil, goerror.NewBusiness("Invalid refresh token", goerror.CodeUnauthorized)
	}
	if s.clock.Now().After(sess.ExpiresAt) {
		return nil, goerror.NewBusiness("Refresh token has expired", goerror.CodeUnauthorized)
	}

	if err := s.ensureUserStatusAllowed(ctx, sess.UserID, sess.UserStatus); err != nil {
		return nil, err
	}

	access, err := s.jwt.Generate(sess.UserID, sess.UserEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", sess.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refresh := s.oid.Generate()
	refreshHash, err := s.hmac.Hash(refresh)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	ro := entity.RotateSession{
		OldID:        sess.SessionID,
		NewID:        s.uid.Generate(),
		UserID:       sess.UserID,
		NewToken:     string(refreshHash),
		NewExpiresAt: s.clock.Now().Add(s.cfg.GetHour("modules.identity.refresh_ttl_hours")),
	}
	if err := s.repoDB.RotateSession(ctx, ro); err != nil {
		slog.ErrorContext(ctx, "failed to repo rotate session", "user_id", sess.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RefreshTokenOutput{AccessToken: access, RefreshToken: refresh}, nil
}
