package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type ProfileOutput struct {
	ID        int64
	Email     string
	Phone     string
	FullName  string
	AvatarURL string
	Status    string
	UpdatedAt time.Time
}

// Profile returns the authenticated user's profile. Email and phone are
// masked the same way the verification flows mask them.
func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.AccountID)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Account not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &ProfileOutput{
		ID:        user.ID,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
		Status:    user.Status.String(),
		UpdatedAt: user.UpdatedAt,
	}
	if user.Email != "" {
		out.Email = otp.Mask(otp.Identifier(user.Email))
	}
	if user.Phone != "" {
		out.Phone = otp.Mask(otp.Identifier(user.Phone))
	}

	return out, nil
}

type ProfileUpdateInput struct {
	FullName  string `validate:"required,min=2,max=100,alphaspace"`
	AvatarURL string `validate:"omitempty,url,max=500"`
}

// ProfileUpdate changes the display fields of the authenticated user.
func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) error {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.UpdateUserProfile(ctx, clm.AccountID, in.FullName, in.AvatarURL); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("Account not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo update user profile", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
