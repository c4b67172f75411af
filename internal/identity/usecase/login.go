package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type LoginInput struct {
	Identifier string `validate:"required,max=255"`
	Password   string `validate:"required,password"`
}

// LoginOutput carries either a token pair or, when a second factor is
// enrolled, a short-lived challenge token for Login2FA.
type LoginOutput struct {
	AccessToken    string
	RefreshToken   string
	ChallengeToken string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	identifier, err := s.canonicalize(in.Identifier)
	if err != nil {
		return nil, err
	}

	info, err := s.repoDB.GetUserLoginInfo(ctx, identifier.String())
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Invalid credentials", goerror.CodeUnauthorized)
		}
		slog.ErrorContext(ctx, "failed to repo get user login info", "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(info.Password, in.Password) {
		return nil, goerror.NewBusiness("Invalid credentials", goerror.CodeUnauthorized)
	}

	if err := s.ensureUserStatusAllowed(ctx, info.ID, info.Status); err != nil {
		return nil, err
	}

	if info.TOTPEnabled {
		token, err := s.createChallenge(ctx, info.ID, entity.ChallengePurposeLogin2FA)
		if err != nil {
			return nil, err
		}
		return &LoginOutput{ChallengeToken: token}, nil
	}

	access, refresh, err := s.issueSession(ctx, info.ID, info.Email)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{AccessToken: access, RefreshToken: refresh}, nil
}

// createChallenge persists a short-lived opaque token the client must
// present with its second factor.
func (s *Usecase) createChallenge(ctx context.Context, userID int64, purpose entity.ChallengePurpose) (string, error) {
	token := s.oid.Generate()
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash challenge token", "error", err)
		return "", goerror.NewServer(err)
	}

	ch := entity.LoginChallenge{
		ID:        s.uid.Generate(),
		UserID:    userID,
		Token:     string(tokenHash),
		Purpose:   purpose,
		ExpiresAt: s.clock.Now().Add(s.cfg.GetMinute("modules.identity.challenge_ttl_minutes")),
	}
	if err := s.repoDB.CreateChallenge(ctx, ch); err != nil {
		slog.ErrorContext(ctx, "failed to repo create challenge", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	return token, nil
}
