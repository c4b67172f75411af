package usecase

import (
	"testing"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func TestCredentialChangeFlow(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "old@example.com", "correct-horse")
	ctx := authCtx(1, "old@example.com")

	out, err := f.uc.CredentialChange(ctx, CredentialChangeInput{
		NewIdentifier: "New@Example.com",
		Password:      "correct-horse",
	})
	if err != nil {
		t.Fatalf("CredentialChange: %v", err)
	}
	if out.Identifier != "n***w@example.com" {
		t.Errorf("masked identifier = %q", out.Identifier)
	}

	// The code goes to the new identifier through the credential-change
	// issuer, not the general one.
	if len(f.otpCred.issued) != 1 || f.otpCred.issued[0].String() != "new@example.com" {
		t.Fatalf("credential issued to %v", f.otpCred.issued)
	}
	if len(f.otp.issued) != 0 {
		t.Fatalf("general issuer used: %v", f.otp.issued)
	}

	err = f.uc.CredentialChangeVerify(ctx, CredentialChangeVerifyInput{
		NewIdentifier: "new@example.com",
		Code:          f.otpCred.code,
	})
	if err != nil {
		t.Fatalf("CredentialChangeVerify: %v", err)
	}

	row := f.repo.users[1]
	if row.user.Email != "new@example.com" {
		t.Errorf("email = %q, want swapped", row.user.Email)
	}
	if len(f.mq.credChange) != 1 ||
		f.mq.credChange[0].OldIdentifier != "old@example.com" ||
		f.mq.credChange[0].NewIdentifier != "new@example.com" {
		t.Errorf("credential changed events = %+v", f.mq.credChange)
	}
}

func TestCredentialChangeTakenIdentifier(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "old@example.com", "correct-horse")
	f.addActiveUser(t, 2, "taken@example.com", "correct-horse")

	_, err := f.uc.CredentialChange(authCtx(1, "old@example.com"), CredentialChangeInput{
		NewIdentifier: "taken@example.com",
		Password:      "correct-horse",
	})
	wantCode(t, err, goerror.CodeConflict)
}

func TestCredentialChangeWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "old@example.com", "correct-horse")

	_, err := f.uc.CredentialChange(authCtx(1, "old@example.com"), CredentialChangeInput{
		NewIdentifier: "new@example.com",
		Password:      "wrong-password",
	})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestCredentialChangeVerifyWithoutPendingChange(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "old@example.com", "correct-horse")

	err := f.uc.CredentialChangeVerify(authCtx(1, "old@example.com"), CredentialChangeVerifyInput{
		NewIdentifier: "new@example.com",
		Code:          "123456",
	})
	wantCode(t, err, goerror.CodeNotFound)
}

func TestCredentialChangeVerifyWrongCode(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "old@example.com", "correct-horse")
	ctx := authCtx(1, "old@example.com")

	if _, err := f.uc.CredentialChange(ctx, CredentialChangeInput{
		NewIdentifier: "new@example.com",
		Password:      "correct-horse",
	}); err != nil {
		t.Fatalf("CredentialChange: %v", err)
	}

	err := f.uc.CredentialChangeVerify(ctx, CredentialChangeVerifyInput{
		NewIdentifier: "new@example.com",
		Code:          "000000",
	})
	wantCode(t, err, goerror.CodeInvalidInput)

	if f.repo.users[1].user.Email != "old@example.com" {
		t.Error("identifier swapped despite a wrong code")
	}
}

func TestCredentialChangeToPhone(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "old@example.com", "correct-horse")
	ctx := authCtx(1, "old@example.com")

	if _, err := f.uc.CredentialChange(ctx, CredentialChangeInput{
		NewIdentifier: "555-123-4567",
		Password:      "correct-horse",
	}); err != nil {
		t.Fatalf("CredentialChange: %v", err)
	}
	if len(f.otpCred.issued) != 1 || f.otpCred.issued[0].String() != "+15551234567" {
		t.Fatalf("credential issued to %v, want E.164 with the default country code", f.otpCred.issued)
	}

	err := f.uc.CredentialChangeVerify(ctx, CredentialChangeVerifyInput{
		NewIdentifier: "+1 555 123 4567",
		Code:          f.otpCred.code,
	})
	if err != nil {
		t.Fatalf("CredentialChangeVerify: %v", err)
	}

	row := f.repo.users[1]
	if row.user.Phone != "+15551234567" {
		t.Errorf("phone = %q, want canonical", row.user.Phone)
	}
	if row.user.Email != "old@example.com" {
		t.Errorf("email = %q, want untouched", row.user.Email)
	}
}
