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

// RegisterInput is the payload to start a registration. Identifier is an
// email address or phone number; the account stays unverified until the
// delivered code is confirmed.
type RegisterInput struct {
	Identifier string `validate:"required,max=255"`
	FullName   string `validate:"required,min=2,max=100,alphaspace"`
	Password   string `validate:"required,password"`
}

type RegisterOutput struct {
	Identifier string
	ExpiresAt  time.Time
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	identifier, err := s.canonicalize(in.Identifier)
	if err != nil {
		return nil, err
	}

	var out *RegisterOutput
	err = s.idemp.Exec(ctx, "identity:register:"+identifier.String(), func(ctx context.Context) error {
		out, err = s.register(ctx, identifier, in)
		return err
	})
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress),
		errors.Is(err, idempotency.ErrAlreadyCompleted),
		errors.Is(err, idempotency.ErrAlreadyFailed):
		return nil, goerror.NewBusiness("A registration for this identifier was just submitted, please wait", goerror.CodeTooManyRequest)
	default:
		return nil, err
	}
}

func (s *Usecase) register(ctx context.Context, identifier otp.Identifier, in RegisterInput) (*RegisterOutput, error) {
	existing, err := s.repoDB.GetUserByIdentifier(ctx, identifier.String())
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by identifier", "error", err)
		return nil, goerror.NewServer(err)
	}

	switch {
	case existing == nil:
		passwordHash, err := s.password.Hash(in.Password)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash password", "error", err)
			return nil, goerror.NewServer(err)
		}

		user := entity.NewUser{
			ID:       s.uid.Generate(),
			FullName: in.FullName,
			Status:   entity.UserStatusUnverified,
		}
		if identifier.IsEmail() {
			user.Email = identifier.String()
		} else {
			user.Phone = identifier.String()
		}

		if err := s.repoDB.CreateUser(ctx, user, string(passwordHash)); err != nil {
			if errors.Is(err, goerror.ErrConflict) {
				return nil, goerror.NewBusiness("Identifier already registered", goerror.CodeConflict)
			}
			slog.ErrorContext(ctx, "failed to repo create user", "error", err)
			return nil, goerror.NewServer(err)
		}

	case existing.Status.Ensure() == entity.UserStatusUnverified:
		// A stalled registration retries by re-issuing a code.

	default:
		return nil, goerror.NewBusiness("Identifier already registered", goerror.CodeConflict)
	}

	res, err := s.otpGeneral.Issue(ctx, identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue registration code", "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := mapIssueStatus(res); err != nil {
		return nil, err
	}

	return &RegisterOutput{Identifier: otp.Mask(identifier), ExpiresAt: res.ExpiresAt}, nil
}
