package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type RegisterVerifyInput struct {
	Identifier string `validate:"required,max=255"`
	Code       string `validate:"required,len=6,numeric"`
}

type RegisterVerifyOutput struct {
	AccessToken  string
	RefreshToken string
}

// RegisterVerify confirms the delivered code, activates the account and
// signs the user in.
func (s *Usecase) RegisterVerify(ctx context.Context, in RegisterVerifyInput) (*RegisterVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterVerify")
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
		slog.ErrorContext(ctx, "failed to verify registration code", "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := mapVerifyStatus(res); err != nil {
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

	if user.Status.Ensure() == entity.UserStatusUnverified {
		if err := s.repoDB.ActivateUser(ctx, user.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo activate user", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		publish(ctx, "user.registered", func() error {
			return s.repoMessaging.PublishUserRegistered(ctx, UserRegisteredEvent{
				UserID:     user.ID,
				Identifier: identifier.String(),
				FullName:   user.FullName,
			})
		})
	}

	access, refresh, err := s.issueSession(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &RegisterVerifyOutput{AccessToken: access, RefreshToken: refresh}, nil
}
