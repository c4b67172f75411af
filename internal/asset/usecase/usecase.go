package usecase

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/aruna-labs/identra/internal/asset/entity"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/storage"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

type repoDB interface {
	CreateAsset(ctx context.Context, asset entity.NewAsset) error
	GetAsset(ctx context.Context, ownerID, id int64) (*entity.Asset, error)
	ListAssets(ctx context.Context, ownerID int64, limit, offset int32) ([]entity.Asset, error)
	SoftDeleteAsset(ctx context.Context, ownerID, id int64) (bool, error)
}

type repoStorage interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// extAllowlist answers whether a file extension may be uploaded. Backed by
// a TTL cache over configuration.
type extAllowlist interface {
	Allowed(ext string) bool
}

// Usecase hosts the asset flows: upload, listing, deletion and signed
// download links.
type Usecase struct {
	repoDB      repoDB
	repoStorage repoStorage
	allowlist   extAllowlist
	cfg         config.Config
	uid         uid.NumberID
	uuid        uid.StringID
	clock       clock.Clocker
	validator   validator.Validator
	ins         instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	RepoStorage repoStorage
	Allowlist   extAllowlist
	Config      config.Config
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:      dep.RepoDB,
		repoStorage: dep.RepoStorage,
		allowlist:   dep.Allowlist,
		cfg:         dep.Config,
		uid:         dep.UID,
		uuid:        dep.UUID,
		clock:       dep.Clock,
		validator:   dep.Validator,
		ins:         dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("asset.usecase").Start(ctx, name)
}

func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}
