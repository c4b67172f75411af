package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aruna-labs/identra/internal/asset/entity"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/storage"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

var errBoom = goerror.NewServer(context.DeadlineExceeded)

type fakeRepo struct {
	assets map[int64]entity.Asset

	failCreate bool
	failAll    bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{assets: map[int64]entity.Asset{}}
}

func (f *fakeRepo) CreateAsset(_ context.Context, asset entity.NewAsset) error {
	if f.failCreate || f.failAll {
		return errBoom
	}
	f.assets[asset.ID] = entity.Asset{
		ID:          asset.ID,
		OwnerID:     asset.OwnerID,
		Bucket:      asset.Bucket,
		Key:         asset.Key,
		FileName:    asset.FileName,
		Extension:   asset.Extension,
		ContentType: asset.ContentType,
		Size:        asset.Size,
	}
	return nil
}

func (f *fakeRepo) GetAsset(_ context.Context, ownerID, id int64) (*entity.Asset, error) {
	if f.failAll {
		return nil, errBoom
	}
	asset, ok := f.assets[id]
	if !ok || asset.OwnerID != ownerID {
		return nil, goerror.ErrNotFound
	}
	return &asset, nil
}

func (f *fakeRepo) ListAssets(_ context.Context, ownerID int64, limit, offset int32) ([]entity.Asset, error) {
	if f.failAll {
		return nil, errBoom
	}
	var out []entity.Asset
	for _, asset := range f.assets {
		if asset.OwnerID == ownerID {
			out = append(out, asset)
		}
	}
	_ = limit
	_ = offset
	return out, nil
}

func (f *fakeRepo) SoftDeleteAsset(_ context.Context, ownerID, id int64) (bool, error) {
	if f.failAll {
		return false, errBoom
	}
	asset, ok := f.assets[id]
	if !ok || asset.OwnerID != ownerID {
		return false, nil
	}
	delete(f.assets, id)
	return true, nil
}

type storedObject struct {
	data        []byte
	contentType string
}

type fakeStorage struct {
	objects map[string]storedObject

	failPut     bool
	failPresign bool
	deleted     []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]storedObject{}}
}

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if f.failPut {
		return storage.ObjectInfo{}, errBoom
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.objects[bucket+"/"+key] = storedObject{data: data, contentType: opts.ContentType}
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data)), ContentType: opts.ContentType}, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, bucket, key string) error {
	delete(f.objects, bucket+"/"+key)
	f.deleted = append(f.deleted, bucket+"/"+key)
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if f.failPresign {
		return "", storage.ErrMissingSigner
	}
	return "https://signed.example.test/" + bucket + "/" + key, nil
}

type fakeAllowlist struct {
	allowed map[string]bool
}

func (f *fakeAllowlist) Allowed(ext string) bool {
	return f.allowed[ext]
}

type seqNumberID struct{ n int64 }

func (s *seqNumberID) Generate() int64 {
	s.n++
	return s.n
}

type seqStringID struct{ n int }

func (s *seqStringID) Generate() string {
	s.n++
	return []string{"aaa", "bbb", "ccc", "ddd"}[(s.n-1)%4]
}

const testConfigYAML = `
modules:
  asset:
    bucket: identra-assets
    max_size_bytes: 64
    download_url_ttl_minutes: 15
`

type fixture struct {
	uc    *Usecase
	repo  *fakeRepo
	store *fakeStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	repo := newFakeRepo()
	store := newFakeStorage()

	uc := New(Dependency{
		RepoDB:      repo,
		RepoStorage: store,
		Allowlist:   &fakeAllowlist{allowed: map[string]bool{"png": true, "pdf": true}},
		Config:      cfg,
		UID:         &seqNumberID{n: 100},
		UUID:        &seqStringID{},
		Clock:       clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Validator:   v,
		Instrument:  instrument.NewNoop(),
	})

	return &fixture{uc: uc, repo: repo, store: store}
}

func authCtx(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{AccountID: userID})
}

func wantCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *goerror.Error", err)
	}
	if ge.Code() != code {
		t.Fatalf("code = %v, want %v (msg %q)", ge.Code(), code, ge.Msg())
	}
}
