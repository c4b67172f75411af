package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/goroutine"
	"github.com/aruna-labs/identra/internal/pkg/hash"
	"github.com/aruna-labs/identra/internal/pkg/idempotency"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/mail"
	"github.com/aruna-labs/identra/internal/pkg/messaging"
	"github.com/aruna-labs/identra/internal/pkg/mfa"
	"github.com/aruna-labs/identra/internal/pkg/pgxcasbin"
	"github.com/aruna-labs/identra/internal/pkg/router"
	"github.com/aruna-labs/identra/internal/pkg/sms"
	"github.com/aruna-labs/identra/internal/pkg/storage"
	"github.com/aruna-labs/identra/internal/pkg/totp"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	runner       *goroutine.Runner
	validator    validator.Validator
	clock        clock.Clocker
	hmac         hash.Hash
	password     hash.Hash
	uid          uid.NumberID
	oid          uid.StringID
	uuid         uid.StringID
	totp         totp.TOTP
	jwt          jwt.JWT
	mfaEncryptor mfa.Encryptor

	// resources
	dbConn        *pgxpool.Pool
	cacheConn     *redis.Client
	idemp         idempotency.Idempotency
	mail          mail.Mail
	sms           sms.Sender
	messaging     messaging.Messaging
	storage       storage.Storage
	casbin        *casbin.Enforcer
	casbinWatcher *pgxcasbin.Watcher

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initSMS()
	app.initStorage()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
