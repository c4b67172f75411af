package usecase

import (
	"bytes"
	"testing"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func TestTOTPSetupStoresEncryptedSeed(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")

	setup, err := f.uc.TOTPSetup(authCtx(1, "user@example.com"))
	if err != nil {
		t.Fatalf("TOTPSetup: %v", err)
	}
	if setup.Secret == "" || setup.URI == "" {
		t.Fatal("expected a secret and a provisioning URI")
	}

	var stored []byte
	for _, factor := range f.repo.factors {
		if factor.UserID == 1 {
			stored = factor.Secret
		}
	}
	if stored == nil {
		t.Fatal("factor was not persisted")
	}
	if bytes.Contains(stored, []byte(setup.Secret)) {
		t.Error("seed stored in plaintext")
	}
}

func TestTOTPConfirmWrongCode(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	ctx := authCtx(1, "user@example.com")

	if _, err := f.uc.TOTPSetup(ctx); err != nil {
		t.Fatalf("TOTPSetup: %v", err)
	}

	err := f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: "000000"})
	wantCode(t, err, goerror.CodeInvalidInput)
}

func TestTOTPConfirmWithoutSetup(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")

	err := f.uc.TOTPConfirm(authCtx(1, "user@example.com"), TOTPConfirmInput{Code: "000000"})
	wantCode(t, err, goerror.CodeNotFound)
}

func TestTOTPSetupWithEnrolledFactorConflicts(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	enrollTOTP(t, f, 1)

	_, err := f.uc.TOTPSetup(authCtx(1, "user@example.com"))
	wantCode(t, err, goerror.CodeConflict)
}

func TestTOTPSetupRetryReplacesPendingFactor(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	ctx := authCtx(1, "user@example.com")

	if _, err := f.uc.TOTPSetup(ctx); err != nil {
		t.Fatalf("first TOTPSetup: %v", err)
	}
	second, err := f.uc.TOTPSetup(ctx)
	if err != nil {
		t.Fatalf("second TOTPSetup: %v", err)
	}

	// Confirm against the latest pending factor.
	code, err := f.totp.GenerateCode(second.Secret, f.clk.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if err := f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: code}); err != nil {
		t.Fatalf("TOTPConfirm: %v", err)
	}
}
