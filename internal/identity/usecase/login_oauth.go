package usecase

import (
	"context"
	"log/slog"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type LoginOAuthInput struct {
	Provider string `validate:"required,oneof=google github"`
	Code     string `validate:"required"`
}

type LoginOAuthOutput struct {
	AccessToken  string
	RefreshToken string
}

// LoginOAuth exchanges an authorization code with the provider and signs
// the reported user in, creating the account on first login.
func (s *Usecase) LoginOAuth(ctx context.Context, in LoginOAuthInput) (*LoginOAuthOutput, error) {
	ctx, span := s.startSpan(ctx, "LoginOAuth")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	profile, err := s.oauth.Exchange(ctx, in.Provider, in.Code)
	if err != nil {
		slog.WarnContext(ctx, "oauth exchange failed", "provider", in.Provider, "error", err)
		return nil, goerror.NewBusiness("Sign-in with the provider failed", goerror.CodeUnauthorized)
	}

	identifier, err := otp.Canonicalize(profile.Email, "")
	if err != nil {
		slog.WarnContext(ctx, "provider returned unusable email", "provider", in.Provider, "error", err)
		return nil, goerror.NewBusiness("The provider did not return a usable email address", goerror.CodeInvalidInput)
	}

	userID, err := s.repoDB.UpsertOAuthUser(ctx, entity.NewUser{
		ID:        s.uid.Generate(),
		Email:     identifier.String(),
		FullName:  profile.FullName,
		AvatarURL: profile.AvatarURL,
		Status:    entity.UserStatusActive,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert oauth user", "error", err)
		return nil, goerror.NewServer(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	access, refresh, err := s.issueSession(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginOAuthOutput{AccessToken: access, RefreshToken: refresh}, nil
}
