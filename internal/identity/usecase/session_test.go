package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func login(t *testing.T, f *fixture) *LoginOutput {
	t.Helper()
	out, err := f.uc.Login(context.Background(), LoginInput{
		Identifier: "user@example.com",
		Password:   "correct-horse",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return out
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	first := login(t, f)

	rotated, err := f.uc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if rotated.RefreshToken == first.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if rotated.AccessToken == "" {
		t.Fatal("expected a new access token")
	}

	// The new token keeps working.
	if _, err := f.uc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: rotated.RefreshToken}); err != nil {
		t.Fatalf("RefreshToken with rotated token: %v", err)
	}
}

func TestRefreshTokenReuseRevokesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	first := login(t, f)

	rotated, err := f.uc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}

	// Presenting the retired token again means it leaked.
	_, err = f.uc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: first.RefreshToken})
	wantCode(t, err, goerror.CodeUnauthorized)

	_, err = f.uc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: rotated.RefreshToken})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestRefreshTokenExpired(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	first := login(t, f)

	f.clk.Advance(721 * time.Hour)

	_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: first.RefreshToken})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestRefreshTokenUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "never-issued"})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestLogoutRevokesPresentedSession(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	first := login(t, f)
	ctx := authCtx(1, "user@example.com")

	if err := f.uc.Logout(ctx, LogoutInput{RefreshToken: first.RefreshToken}); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: first.RefreshToken})
	wantCode(t, err, goerror.CodeUnauthorized)

	// Logging out an already-revoked token is a no-op.
	if err := f.uc.Logout(ctx, LogoutInput{RefreshToken: "never-issued-token"}); err != nil {
		t.Errorf("Logout with unknown token: %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")
	login(t, f)
	login(t, f)

	if err := f.uc.LogoutAll(authCtx(1, "user@example.com")); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}

	for _, sess := range f.repo.sessions {
		if sess.UserID == 1 && !sess.Revoked {
			t.Error("session survived LogoutAll")
		}
	}
}
