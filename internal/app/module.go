package app

import (
	"log/slog"
	"os"

	"github.com/aruna-labs/identra/internal/asset"
	"github.com/aruna-labs/identra/internal/identity"
	"github.com/aruna-labs/identra/internal/membership"
	"github.com/aruna-labs/identra/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:       a.dbConn,
			CacheConn:    a.cacheConn,
			Router:       a.router,
			Idempotency:  a.idemp,
			Messaging:    a.messaging,
			Mailer:       a.mail,
			SMS:          a.sms,
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			OID:          a.oid,
			HMAC:         a.hmac,
			Password:     a.password,
			MFAEncryptor: a.mfaEncryptor,
			Clock:        a.clock,
			Totp:         a.totp,
			Validator:    a.validator,
			JWT:          a.jwt,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.membership.enabled") {
		if err := membership.New(membership.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Enforcer:   a.casbin,
			Instrument: a.ins,
			UID:        a.uid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module membership", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.asset.enabled") {
		if err := asset.New(asset.Dependency{
			DBConn:     a.dbConn,
			Storage:    a.storage,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Validator:  a.validator,
			Router:     a.router,
		}); err != nil {
			slog.Error("failed to init module asset", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Runner:     a.runner,
			Validator:  a.validator,
			Router:     a.router,
			Mailer:     a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
