// Package identity wires the account lifecycle module: registration,
// logins, password and credential management, second factor and sessions.
package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aruna-labs/identra/internal/identity/inbound"
	"github.com/aruna-labs/identra/internal/identity/outbound/db"
	"github.com/aruna-labs/identra/internal/identity/outbound/mq"
	"github.com/aruna-labs/identra/internal/identity/outbound/oauth"
	"github.com/aruna-labs/identra/internal/identity/usecase"
	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/otp/pgstore"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/hash"
	"github.com/aruna-labs/identra/internal/pkg/idempotency"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/mail"
	"github.com/aruna-labs/identra/internal/pkg/messaging"
	"github.com/aruna-labs/identra/internal/pkg/mfa"
	"github.com/aruna-labs/identra/internal/pkg/router"
	"github.com/aruna-labs/identra/internal/pkg/sms"
	"github.com/aruna-labs/identra/internal/pkg/totp"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	CacheConn    *redis.Client              `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Idempotency  idempotency.Idempotency    `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Mailer       mail.Mail                  `validate:"required"`
	SMS          sms.Sender                 `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	OID          uid.StringID               `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	Password     hash.Hash                  `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         totp.TOTP                  `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	oauthClient := oauth.NewClient(dep.Config, dep.Instrument)

	codeStore := pgstore.NewCodeStore(dep.DBConn, dep.Instrument)
	limitStore := pgstore.NewLimitStore(dep.DBConn, dep.Instrument)
	accounts := pgstore.NewAccountLookup(dep.DBConn, dep.Instrument)
	dispatcher := otp.NewDispatcher(dep.Mailer, dep.SMS, dep.Config.GetString("modules.identity.otp_mail_subject"))
	limiter := otp.NewRateLimiter(limitStore, dep.Clock, otp.LimiterConfig{
		MaxAttempts: dep.Config.GetInt("modules.identity.otp_max_requests"),
		Window:      dep.Config.GetMinute("modules.identity.otp_window_minutes"),
	})

	// Registration, passwordless login and password reset share one issuer.
	// Credential changes run with a longer TTL and a per-record attempt cap
	// since the code guards an identifier swap.
	otpGeneral := otp.NewService(otp.Config{
		TTL: dep.Config.GetMinute("modules.identity.otp_ttl_minutes"),
	}, otp.Dependency{
		Store:    codeStore,
		Limiter:  limiter,
		Accounts: accounts,
		Channel:  dispatcher,
		Clock:    dep.Clock,
		UID:      dep.UID,
	})
	otpCredential := otp.NewService(otp.Config{
		TTL:               dep.Config.GetMinute("modules.identity.otp_credential_ttl_minutes"),
		MaxVerifyAttempts: dep.Config.GetInt("modules.identity.otp_credential_max_attempts"),
	}, otp.Dependency{
		Store:    codeStore,
		Limiter:  limiter,
		Accounts: accounts,
		Channel:  dispatcher,
		Clock:    dep.Clock,
		UID:      dep.UID,
	})

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbAuth,
		RepoMessaging: repoMsg,
		OTPGeneral:    otpGeneral,
		OTPCredential: otpCredential,
		OAuth:         oauthClient,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Password:      dep.Password,
		MFAEncryptor:  dep.MFAEncryptor,
		UID:           dep.UID,
		OID:           dep.OID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
