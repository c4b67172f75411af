package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func wantCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error with code %v, got nil", code)
	}
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("want *goerror.Error, got %T: %v", err, err)
	}
	if gerr.Code() != code {
		t.Fatalf("error code = %v, want %v (err: %v)", gerr.Code(), code, err)
	}
}

func TestRegisterCreatesUnverifiedUserAndSendsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.uc.Register(ctx, RegisterInput{
		Identifier: "New.User@Example.COM",
		FullName:   "New User",
		Password:   "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if out.Identifier != "n***r@example.com" {
		t.Errorf("masked identifier = %q", out.Identifier)
	}
	if len(f.otp.issued) != 1 || f.otp.issued[0].String() != "new.user@example.com" {
		t.Fatalf("issued to %v, want canonical lowercase email", f.otp.issued)
	}

	row := f.repo.findByIdentifier("new.user@example.com")
	if row == nil {
		t.Fatal("user was not created")
	}
	if row.user.Status != entity.UserStatusUnverified {
		t.Errorf("status = %v, want unverified", row.user.Status)
	}
	if row.password == "correct-horse" {
		t.Error("password stored in plaintext")
	}
}

func TestRegisterExistingActiveUserConflicts(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "taken@example.com", "correct-horse")

	_, err := f.uc.Register(context.Background(), RegisterInput{
		Identifier: "taken@example.com",
		FullName:   "Someone Else",
		Password:   "another-pass",
	})
	wantCode(t, err, goerror.CodeConflict)
}

func TestRegisterStalledRegistrationResendsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := RegisterInput{Identifier: "new@example.com", FullName: "New User", Password: "correct-horse"}

	if _, err := f.uc.Register(ctx, in); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := f.uc.Register(ctx, in); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	if len(f.otp.issued) != 2 {
		t.Fatalf("issued %d codes, want 2", len(f.otp.issued))
	}
	if len(f.repo.users) != 1 {
		t.Fatalf("have %d users, want 1", len(f.repo.users))
	}
}

func TestRegisterRejectsInvalidIdentifier(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Register(context.Background(), RegisterInput{
		Identifier: "not-an-identifier",
		FullName:   "New User",
		Password:   "correct-horse",
	})
	wantCode(t, err, goerror.CodeInvalidInput)
}

func TestRegisterVerifyActivatesAndSignsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.uc.Register(ctx, RegisterInput{
		Identifier: "new@example.com", FullName: "New User", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	out, err := f.uc.RegisterVerify(ctx, RegisterVerifyInput{
		Identifier: "new@example.com",
		Code:       f.otp.code,
	})
	if err != nil {
		t.Fatalf("RegisterVerify: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}

	row := f.repo.findByIdentifier("new@example.com")
	if row.user.Status != entity.UserStatusActive {
		t.Errorf("status = %v, want active", row.user.Status)
	}
	if len(f.mq.registered) != 1 || f.mq.registered[0].UserID != row.user.ID {
		t.Errorf("registered events = %+v", f.mq.registered)
	}
}

func TestRegisterVerifyWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.uc.Register(ctx, RegisterInput{
		Identifier: "new@example.com", FullName: "New User", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := f.uc.RegisterVerify(ctx, RegisterVerifyInput{Identifier: "new@example.com", Code: "000000"})
	wantCode(t, err, goerror.CodeInvalidInput)

	if row := f.repo.findByIdentifier("new@example.com"); row.user.Status != entity.UserStatusUnverified {
		t.Errorf("status = %v, want still unverified", row.user.Status)
	}
}

func TestRegisterResendRequiresPendingRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.RegisterResend(ctx, RegisterResendInput{Identifier: "nobody@example.com"})
	wantCode(t, err, goerror.CodeNotFound)

	f.addActiveUser(t, 1, "active@example.com", "correct-horse")
	_, err = f.uc.RegisterResend(ctx, RegisterResendInput{Identifier: "active@example.com"})
	wantCode(t, err, goerror.CodeConflict)
}
