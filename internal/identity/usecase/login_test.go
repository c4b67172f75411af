package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func TestLoginWithPassword(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")

	out, err := f.uc.Login(context.Background(), LoginInput{
		Identifier: "User@Example.com",
		Password:   "correct-horse",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
	if out.ChallengeToken != "" {
		t.Error("unexpected challenge token without an enrolled factor")
	}
	if len(f.repo.sessions) != 1 {
		t.Fatalf("have %d sessions, want 1", len(f.repo.sessions))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")

	_, err := f.uc.Login(context.Background(), LoginInput{
		Identifier: "user@example.com",
		Password:   "wrong-password",
	})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestLoginUnknownIdentifierSameError(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Login(context.Background(), LoginInput{
		Identifier: "nobody@example.com",
		Password:   "whatever-pass",
	})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestLoginBlockedStatuses(t *testing.T) {
	f := newFixture(t)
	hashed, _ := f.bcrypt.Hash("correct-horse")

	cases := []struct {
		name   string
		status entity.UserStatus
	}{
		{"unverified", entity.UserStatusUnverified},
		{"banned", entity.UserStatusBanned},
		{"inactive", entity.UserStatusInactive},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := int64(i + 1)
			email := tc.name + "@example.com"
			f.repo.addUser(entity.User{ID: id, Email: email, Status: tc.status}, string(hashed))

			_, err := f.uc.Login(context.Background(), LoginInput{Identifier: email, Password: "correct-horse"})
			wantCode(t, err, goerror.CodeForbidden)
		})
	}
}

func TestLoginWithEnrolledFactorReturnsChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	secret := enrollTOTP(t, f, 1)

	out, err := f.uc.Login(ctx, LoginInput{Identifier: "user@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if out.ChallengeToken == "" {
		t.Fatal("expected a challenge token")
	}
	if out.AccessToken != "" || out.RefreshToken != "" {
		t.Fatal("tokens issued before the second factor was checked")
	}

	code, err := f.totp.GenerateCode(secret, f.clk.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	tokens, err := f.uc.Login2FA(ctx, Login2FAInput{ChallengeToken: out.ChallengeToken, Code: code})
	if err != nil {
		t.Fatalf("Login2FA: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}

	// The challenge is single use.
	_, err = f.uc.Login2FA(ctx, Login2FAInput{ChallengeToken: out.ChallengeToken, Code: code})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestLogin2FAExpiredChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	secret := enrollTOTP(t, f, 1)

	out, err := f.uc.Login(ctx, LoginInput{Identifier: "user@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.clk.Advance(6 * time.Minute) // past the 5 minute challenge TTL

	code, _ := f.totp.GenerateCode(secret, f.clk.Now())
	_, err = f.uc.Login2FA(ctx, Login2FAInput{ChallengeToken: out.ChallengeToken, Code: code})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestLoginOTPFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addActiveUser(t, 7, "user@example.com", "correct-horse")

	out, err := f.uc.LoginOTP(ctx, LoginOTPInput{Identifier: "user@example.com"})
	if err != nil {
		t.Fatalf("LoginOTP: %v", err)
	}
	if out.Identifier != "u***r@example.com" {
		t.Errorf("masked identifier = %q", out.Identifier)
	}

	tokens, err := f.uc.LoginOTPVerify(ctx, LoginOTPVerifyInput{
		Identifier: "user@example.com",
		Code:       f.otp.code,
	})
	if err != nil {
		t.Fatalf("LoginOTPVerify: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
}

func TestLoginOTPUnknownIdentifierDoesNotRevealAccounts(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.LoginOTP(context.Background(), LoginOTPInput{Identifier: "nobody@example.com"})
	if err != nil {
		t.Fatalf("LoginOTP: %v", err)
	}
	if out.Identifier == "" || out.ExpiresAt.IsZero() {
		t.Error("response shape differs for unknown identifiers")
	}
	if len(f.otp.issued) != 0 {
		t.Errorf("issued %d codes for an unknown identifier", len(f.otp.issued))
	}
}

// A non-default code TTL must show up in the decoy response too, or the
// expiry becomes an account-existence oracle.
func TestLoginOTPDecoyExpiryMatchesIssuedCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	f.otp.ttl = 7 * time.Minute

	known, err := f.uc.LoginOTP(ctx, LoginOTPInput{Identifier: "user@example.com"})
	if err != nil {
		t.Fatalf("LoginOTP known: %v", err)
	}
	unknown, err := f.uc.LoginOTP(ctx, LoginOTPInput{Identifier: "nobody@example.com"})
	if err != nil {
		t.Fatalf("LoginOTP unknown: %v", err)
	}
	if !unknown.ExpiresAt.Equal(known.ExpiresAt) {
		t.Errorf("decoy expiry = %v, real = %v", unknown.ExpiresAt, known.ExpiresAt)
	}
}

func TestLoginOAuthCreatesAndSignsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.oauth.user = &OAuthUser{Email: "OAuth.User@Example.com", FullName: "OAuth User", AvatarURL: "https://cdn.example.com/a.png"}

	out, err := f.uc.LoginOAuth(ctx, LoginOAuthInput{Provider: "google", Code: "auth-code"})
	if err != nil {
		t.Fatalf("LoginOAuth: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}

	row := f.repo.findByIdentifier("oauth.user@example.com")
	if row == nil {
		t.Fatal("oauth user was not created")
	}
	if row.user.Status != entity.UserStatusActive {
		t.Errorf("status = %v, want active", row.user.Status)
	}

	// Second sign-in reuses the account.
	if _, err := f.uc.LoginOAuth(ctx, LoginOAuthInput{Provider: "google", Code: "auth-code"}); err != nil {
		t.Fatalf("second LoginOAuth: %v", err)
	}
	if len(f.repo.users) != 1 {
		t.Fatalf("have %d users, want 1", len(f.repo.users))
	}
}

// enrollTOTP runs setup+confirm for the user and returns the shared secret.
func enrollTOTP(t *testing.T, f *fixture, userID int64) string {
	t.Helper()
	ctx := authCtx(userID, "user@example.com")

	setup, err := f.uc.TOTPSetup(ctx)
	if err != nil {
		t.Fatalf("TOTPSetup: %v", err)
	}
	code, err := f.totp.GenerateCode(setup.Secret, f.clk.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if err := f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: code}); err != nil {
		t.Fatalf("TOTPConfirm: %v", err)
	}
	return setup.Secret
}
