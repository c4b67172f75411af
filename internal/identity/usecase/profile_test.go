package usecase

import (
	"context"
	"testing"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func TestProfileMasksIdentifiers(t *testing.T) {
	f := newFixture(t)
	f.repo.addUser(entity.User{
		ID:       1,
		Email:    "user@example.com",
		Phone:    "+15551234567",
		FullName: "Test User",
		Status:   entity.UserStatusActive,
	}, "")

	out, err := f.uc.Profile(authCtx(1, "user@example.com"))
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if out.Email != "u***r@example.com" {
		t.Errorf("email = %q", out.Email)
	}
	if out.Phone != "+15***4567" {
		t.Errorf("phone = %q", out.Phone)
	}
	if out.FullName != "Test User" || out.Status != "Active" {
		t.Errorf("profile = %+v", out)
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Profile(context.Background())
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestProfileUpdate(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")

	err := f.uc.ProfileUpdate(authCtx(1, "user@example.com"), ProfileUpdateInput{
		FullName:  "Renamed User",
		AvatarURL: "https://cdn.example.com/avatar.png",
	})
	if err != nil {
		t.Fatalf("ProfileUpdate: %v", err)
	}

	row := f.repo.users[1]
	if row.user.FullName != "Renamed User" || row.user.AvatarURL != "https://cdn.example.com/avatar.png" {
		t.Errorf("user = %+v", row.user)
	}
}

func TestProfileUpdateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, 1, "user@example.com", "correct-horse")

	err := f.uc.ProfileUpdate(authCtx(1, "user@example.com"), ProfileUpdateInput{
		FullName:  "X",
		AvatarURL: "not a url",
	})
	wantCode(t, err, goerror.CodeInvalidInput)
}
