package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/mfa"
)

type Login2FAInput struct {
	ChallengeToken string `validate:"required,max=128"`
	Code           string `validate:"required,len=6,numeric"`
}

type Login2FAOutput struct {
	AccessToken  string
	RefreshToken string
}

// Login2FA completes a password login that was answered with a challenge
// token. The authenticator code is checked against the confirmed factor.
func (s *Usecase) Login2FA(ctx context.Context, in Login2FAInput) (*Login2FAOutput, error) {
	ctx, span := s.startSpan(ctx, "Login2FA")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hmac.Hash(in.ChallengeToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash challenge token", "error", err)
		return nil, goerror.NewServer(err)
	}

	ch, err := s.repoDB.GetChallengeByTokenHash(ctx, string(tokenHash))
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Invalid or expired challenge", goerror.CodeUnauthorized)
		}
		slog.ErrorContext(ctx, "failed to repo get challenge", "error", err)
		return nil, goerror.NewServer(err)
	}
	if ch.Purpose != entity.ChallengePurposeLogin2FA || s.clock.Now().After(ch.ExpiresAt) {
		return nil, goerror.NewBusiness("Invalid or expired challenge", goerror.CodeUnauthorized)
	}

	factor, err := s.repoDB.GetTOTPFactor(ctx, ch.UserID, true)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("No authenticator is enrolled", goerror.CodeForbidden)
		}
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", ch.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret, err := s.mfaEncryptor.Decrypt(factor.Secret, mfa.Scope{AccountID: ch.UserID, Purpose: mfa.PurposeOTPSeed})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", ch.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.totp.Validate(in.Code, string(secret), s.clock.Now()) {
		return nil, goerror.NewBusiness("Invalid authenticator code", goerror.CodeUnauthorized)
	}

	if err := s.repoDB.DeleteChallenge(ctx, ch.ChallengeID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete challenge", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, ch.UserID, ch.UserStatus); err != nil {
		return nil, err
	}

	access, refresh, err := s.issueSession(ctx, ch.UserID, ch.UserEmail)
	if err != nil {
		return nil, err
	}

	return &Login2FAOutput{AccessToken: access, RefreshToken: refresh}, nil
}
