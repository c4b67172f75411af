package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/mfa"
)

type TOTPSetupOutput struct {
	Secret string
	URI    string
}

// TOTPSetup enrolls a new authenticator factor. The factor only counts
// after TOTPConfirm proves the app produces matching codes; the seed is
// stored encrypted and scoped to the account.
func (s *Usecase) TOTPSetup(ctx context.Context) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.repoDB.GetTOTPFactor(ctx, clm.AccountID, true); err == nil {
		return nil, goerror.NewBusiness("An authenticator is already enrolled", goerror.CodeConflict)
	} else if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.AccountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret, uri, err := s.totp.Generate(user.PrimaryIdentifier())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp seed", "error", err)
		return nil, goerror.NewServer(err)
	}

	encrypted, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{AccountID: clm.AccountID, Purpose: mfa.PurposeOTPSeed})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp seed", "error", err)
		return nil, goerror.NewServer(err)
	}

	factor := entity.TOTPFactor{
		ID:         s.uid.Generate(),
		UserID:     clm.AccountID,
		Secret:     encrypted,
		KeyVersion: 1,
	}
	if err := s.repoDB.CreateTOTPFactor(ctx, factor); err != nil {
		slog.ErrorContext(ctx, "failed to repo create totp factor", "user_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TOTPSetupOutput{Secret: secret, URI: uri}, nil
}

type TOTPConfirmInput struct {
	Code string `validate:"required,len=6,numeric"`
}

// TOTPConfirm marks the pending factor as confirmed once the app produces
// a valid code.
func (s *Usecase) TOTPConfirm(ctx context.Context, in TOTPConfirmInput) error {
	ctx, span := s.startSpan(ctx, "TOTPConfirm")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	factor, err := s.repoDB.GetTOTPFactor(ctx, clm.AccountID, false)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("No pending authenticator enrollment", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}
	if factor.Confirmed {
		return goerror.NewBusiness("An authenticator is already enrolled", goerror.CodeConflict)
	}

	secret, err := s.mfaEncryptor.Decrypt(factor.Secret, mfa.Scope{AccountID: clm.AccountID, Purpose: mfa.PurposeOTPSeed})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp seed", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.totp.Validate(in.Code, string(secret), s.clock.Now()) {
		return goerror.NewBusiness("Invalid authenticator code", goerror.CodeInvalidInput)
	}

	if err := s.repoDB.ConfirmTOTPFactor(ctx, factor.ID, clm.AccountID); err != nil {
		slog.ErrorContext(ctx, "failed to repo confirm totp factor", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
