package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/idempotency"
)

type CredentialChangeInput struct {
	NewIdentifier string `validate:"required,max=255"`
	Password      string `validate:"required,password"`
}

type CredentialChangeOutput struct {
	Identifier string
	ExpiresAt  time.Time
}

// CredentialChange starts swapping the account's email or phone. The code
// goes to the new identifier, proving the user controls it before the swap.
func (s *Usecase) CredentialChange(ctx context.Context, in CredentialChangeInput) (*CredentialChangeOutput, error) {
	ctx, span := s.startSpan(ctx, "CredentialChange")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	identifier, err := s.canonicalize(in.NewIdentifier)
	if err != nil {
		return nil, err
	}

	var out *CredentialChangeOutput
	err = s.idemp.Exec(ctx, "identity:credential:"+identifier.String(), func(ctx context.Context) error {
		out, err = s.credentialChange(ctx, clm.AccountID, identifier, in)
		return err
	})
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress),
		errors.Is(err, idempotency.ErrAlreadyCompleted),
		errors.Is(err, idempotency.ErrAlreadyFailed):
		return nil, goerror.NewBusiness("A change for this identifier was just submitted, please wait", goerror.CodeTooManyRequest)
	default:
		return nil, err
	}
}

func (s *Usecase) credentialChange(ctx context.Context, userID int64, identifier otp.Identifier, in CredentialChangeInput) (*CredentialChangeOutput, error) {
	user, err := s.repoDB.GetUserByID(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	info, err := s.repoDB.GetUserLoginInfo(ctx, user.PrimaryIdentifier())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !s.password.Verify(info.Password, in.Password) {
		return nil, goerror.NewBusiness("Current password is incorrect", goerror.CodeUnauthorized)
	}

	taken, err := s.repoDB.GetUserByIdentifier(ctx, identifier.String())
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by identifier", "error", err)
		return nil, goerror.NewServer(err)
	}
	if taken != nil {
		return nil, goerror.NewBusiness("Identifier already registered", goerror.CodeConflict)
	}

	ch := entity.CredentialChange{
		ID:            s.uid.Generate(),
		UserID:        userID,
		NewIdentifier: identifier.String(),
		IsEmail:       identifier.IsEmail(),
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repoDB.CreateCredentialChange(ctx, ch); err != nil {
		slog.ErrorContext(ctx, "failed to repo create credential change", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	res, err := s.otpCredential.Issue(ctx, identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue credential change code", "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := mapIssueStatus(res); err != nil {
		return nil, err
	}

	return &CredentialChangeOutput{Identifier: otp.Mask(identifier), ExpiresAt: res.ExpiresAt}, nil
}

type CredentialChangeVerifyInput struct {
	NewIdentifier string `validate:"required,max=255"`
	Code          string `validate:"required,len=6,numeric"`
}

// CredentialChangeVerify confirms the code sent to the new identifier and
// applies the swap.
func (s *Usecase) CredentialChangeVerify(ctx context.Context, in CredentialChangeVerifyInput) error {
	ctx, span := s.startSpan(ctx, "CredentialChangeVerify")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	identifier, err := s.canonicalize(in.NewIdentifier)
	if err != nil {
		return err
	}

	ch, err := s.repoDB.GetCredentialChange(ctx, clm.AccountID, identifier.String())
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("No pending change for this identifier", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get credential change", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	res, err := s.otpCredential.Verify(ctx, identifier, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify credential change code", "error", err)
		return goerror.NewServer(err)
	}
	if err := mapVerifyStatus(res); err != nil {
		return err
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.AccountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}
	oldIdentifier := user.PrimaryIdentifier()

	if err := s.repoDB.ApplyCredentialChange(ctx, *ch); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return goerror.NewBusiness("Identifier already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo apply credential change", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	publish(ctx, "credential.changed", func() error {
		return s.repoMessaging.PublishCredentialChanged(ctx, CredentialChangedEvent{
			UserID:        clm.AccountID,
			OldIdentifier: oldIdentifier,
			NewIdentifier: identifier.String(),
		})
	})

	return nil
}
