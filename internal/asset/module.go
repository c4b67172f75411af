// Package asset wires the asset module: uploads into object storage,
// metadata rows in Postgres, and signed download links.
package asset

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aruna-labs/identra/internal/asset/extcache"
	"github.com/aruna-labs/identra/internal/asset/inbound"
	"github.com/aruna-labs/identra/internal/asset/outbound/db"
	"github.com/aruna-labs/identra/internal/asset/usecase"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/router"
	"github.com/aruna-labs/identra/internal/pkg/storage"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Router     *router.Router             `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	allowlist := extcache.New(dep.Config, dep.Clock,
		dep.Config.GetMinute("modules.asset.allowlist_ttl_minutes"))

	uc := usecase.New(usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		RepoStorage: dep.Storage,
		Allowlist:   allowlist,
		Config:      dep.Config,
		UID:         dep.UID,
		UUID:        dep.UUID,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
