package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func (f *fixture) seedAsset(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()

	out, err := f.uc.Upload(authCtx(ownerID), UploadInput{
		File:        strings.NewReader("data"),
		FileName:    name,
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	return out.Asset.ID
}

func TestListReturnsOwnAssetsOnly(t *testing.T) {
	f := newFixture(t)
	f.seedAsset(t, 1, "a.png")
	f.seedAsset(t, 1, "b.png")
	f.seedAsset(t, 2, "c.png")

	assets, err := f.uc.List(authCtx(1), ListInput{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(assets) != 2 {
		t.Errorf("assets = %d, want 2", len(assets))
	}
}

func TestListRequiresAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.List(context.Background(), ListInput{})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestDeleteRemovesRowAndBlob(t *testing.T) {
	f := newFixture(t)
	id := f.seedAsset(t, 1, "a.png")

	if err := f.uc.Delete(authCtx(1), DeleteInput{ID: id}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(f.repo.assets) != 0 {
		t.Error("asset row still present")
	}
	if len(f.store.objects) != 0 {
		t.Error("object still present")
	}
}

func TestDeleteOtherUsersAsset(t *testing.T) {
	f := newFixture(t)
	id := f.seedAsset(t, 2, "a.png")

	err := f.uc.Delete(authCtx(1), DeleteInput{ID: id})
	wantCode(t, err, goerror.CodeNotFound)

	if len(f.store.objects) != 1 {
		t.Error("object removed across owners")
	}
}

func TestDeleteUnknownAsset(t *testing.T) {
	f := newFixture(t)

	err := f.uc.Delete(authCtx(1), DeleteInput{ID: 42})
	wantCode(t, err, goerror.CodeNotFound)
}

func TestDownloadURLSignsStoredKey(t *testing.T) {
	f := newFixture(t)
	id := f.seedAsset(t, 1, "a.png")

	out, err := f.uc.DownloadURL(authCtx(1), DownloadURLInput{ID: id})
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if out.URL != "https://signed.example.test/identra-assets/1/aaa.png" {
		t.Errorf("url = %q", out.URL)
	}
	if out.ExpiresIn != 15*60 {
		t.Errorf("expires_in = %d, want %d", out.ExpiresIn, 15*60)
	}
}

func TestDownloadURLUnknownAsset(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.DownloadURL(authCtx(1), DownloadURLInput{ID: 42})
	wantCode(t, err, goerror.CodeNotFound)
}

func TestDownloadURLSignerUnavailable(t *testing.T) {
	f := newFixture(t)
	id := f.seedAsset(t, 1, "a.png")
	f.store.failPresign = true

	_, err := f.uc.DownloadURL(authCtx(1), DownloadURLInput{ID: id})
	wantCode(t, err, goerror.CodeInternal)
}
