package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/hash"
	"github.com/aruna-labs/identra/internal/pkg/idempotency"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/mfa"
	"github.com/aruna-labs/identra/internal/pkg/totp"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

// UserRegisteredEvent is published after registration is verified.
type UserRegisteredEvent struct {
	UserID     int64
	Identifier string
	FullName   string
}

// PasswordChangedEvent is published after a reset or change.
type PasswordChangedEvent struct {
	UserID     int64
	Identifier string
}

// CredentialChangedEvent is published after an identifier swap.
type CredentialChangedEvent struct {
	UserID        int64
	OldIdentifier string
	NewIdentifier string
}

// OAuthUser is the profile an external provider reports for an
// authorization code.
type OAuthUser struct {
	Email     string
	FullName  string
	AvatarURL string
}

// otpService is the one-time code contract consumed by the flows. The
// general instance (5 minute TTL, no per-record cap) serves login,
// registration and password reset; the credential-change instance runs with
// a 10 minute TTL and a per-record attempt cap.
type otpService interface {
	Issue(ctx context.Context, id otp.Identifier) (otp.IssueResult, error)
	Verify(ctx context.Context, id otp.Identifier, code string) (otp.VerifyResult, error)
	TTL() time.Duration
}

type oauthClient interface {
	Exchange(ctx context.Context, provider, code string) (*OAuthUser, error)
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
	PublishPasswordChanged(ctx context.Context, msg PasswordChangedEvent) error
	PublishCredentialChanged(ctx context.Context, msg CredentialChangedEvent) error
}

type repoDB interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	GetUserLoginInfo(ctx context.Context, identifier string) (*entity.UserLoginInfo, error)
	CreateUser(ctx context.Context, user entity.NewUser, passwordHash string) error
	ActivateUser(ctx context.Context, userID int64) error
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateUserProfile(ctx context.Context, userID int64, fullName, avatarURL string) error
	UpsertOAuthUser(ctx context.Context, user entity.NewUser) (int64, error)

	CreateCredentialChange(ctx context.Context, ch entity.CredentialChange) error
	GetCredentialChange(ctx context.Context, userID int64, newIdentifier string) (*entity.CredentialChange, error)
	ApplyCredentialChange(ctx context.Context, ch entity.CredentialChange) error

	CreateSession(ctx context.Context, sess entity.RefreshSession) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*entity.SessionUser, error)
	RotateSession(ctx context.Context, ro entity.RotateSession) error
	RevokeSession(ctx context.Context, tokenHash string) error
	RevokeAllSessions(ctx context.Context, userID int64) error

	CreateChallenge(ctx context.Context, ch entity.LoginChallenge) error
	GetChallengeByTokenHash(ctx context.Context, tokenHash string) (*entity.ChallengeUser, error)
	DeleteChallenge(ctx context.Context, id int64) error

	CreateTOTPFactor(ctx context.Context, f entity.TOTPFactor) error
	GetTOTPFactor(ctx context.Context, userID int64, confirmedOnly bool) (*entity.TOTPFactor, error)
	ConfirmTOTPFactor(ctx context.Context, factorID, userID int64) error
}

// Usecase hosts the identity flows: registration, logins, password
// lifecycle, credential change, second factor and sessions.
type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	otpGeneral    otpService
	otpCredential otpService
	oauth         oauthClient
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	password      hash.Hash
	mfaEncryptor  mfa.Encryptor
	uid           uid.NumberID
	oid           uid.StringID
	totp          totp.TOTP
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

// Dependency carries the collaborators for New.
type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	OTPGeneral    otpService
	OTPCredential otpService
	OAuth         oauthClient
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Password      hash.Hash
	MFAEncryptor  mfa.Encryptor
	UID           uid.NumberID
	OID           uid.StringID
	Totp          totp.TOTP
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		otpGeneral:    dep.OTPGeneral,
		otpCredential: dep.OTPCredential,
		oauth:         dep.OAuth,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		password:      dep.Password,
		mfaEncryptor:  dep.MFAEncryptor,
		uid:           dep.UID,
		oid:           dep.OID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

// canonicalize normalizes a raw identifier, inferring the configured
// country code for bare phone numbers.
func (s *Usecase) canonicalize(raw string) (otp.Identifier, error) {
	id, err := otp.Canonicalize(raw, s.cfg.GetString("modules.identity.default_country_code"))
	if err != nil {
		return "", goerror.NewInvalidInput(err, "identifier", "must be a valid email address or phone number")
	}
	return id, nil
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusUnknown:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("Account status is unrecognized", goerror.CodeForbidden)

	case entity.UserStatusUnverified:
		slog.WarnContext(ctx, "user account is unverified", "user_id", userID)
		return goerror.NewBusiness("Account not verified", goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("Account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is inactive", "user_id", userID)
		return goerror.NewBusiness("Account is deactivated", goerror.CodeForbidden)

	default:
		return nil
	}
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// issueSession creates the token pair for a user: a signed access token and
// an opaque refresh token stored HMAC-hashed.
func (s *Usecase) issueSession(ctx context.Context, userID int64, email string) (access, refresh string, err error) {
	access, err = s.jwt.Generate(userID, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	refresh = s.oid.Generate()
	refreshHash, err := s.hmac.Hash(refresh)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return "", "", goerror.NewServer(err)
	}

	sess := entity.RefreshSession{
		ID:        s.uid.Generate(),
		UserID:    userID,
		Token:     string(refreshHash),
		ExpiresAt: s.clock.Now().Add(s.cfg.GetHour("modules.identity.refresh_ttl_hours")),
	}
	if err := s.repoDB.CreateSession(ctx, sess); err != nil {
		slog.ErrorContext(ctx, "failed to repo create session", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	return access, refresh, nil
}

// mapIssueStatus converts a non-OK issue outcome into the business error
// shown to the caller.
func mapIssueStatus(res otp.IssueResult) error {
	switch res.Status {
	case otp.StatusRateLimited:
		return goerror.NewBusiness("Too many requests, please wait before retrying", goerror.CodeTooManyRequest)
	case otp.StatusDeliveryFailed:
		return goerror.NewBusiness("We could not deliver the code, please try again", goerror.CodeInternal)
	default:
		return nil
	}
}

// mapVerifyStatus converts a non-OK verify outcome into the business error
// shown to the caller. Lockout is reported as invalid-or-expired to avoid
// leaking which failure occurred, matching the message the lockout hides
// behind in the UI.
func mapVerifyStatus(res otp.VerifyResult) error {
	switch res.Status {
	case otp.StatusOK:
		return nil
	case otp.StatusAlreadyUsed:
		return goerror.NewBusiness("This code was already used, please request a new one", goerror.CodeInvalidInput)
	case otp.StatusExpired:
		return goerror.NewBusiness("This code has expired, please request a new one", goerror.CodeInvalidInput)
	case otp.StatusTooManyAttempts:
		return goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
	default:
		return goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
	}
}

// publish logs instead of failing the flow; events are best effort.
func publish(ctx context.Context, name string, fn func() error) {
	if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "failed to publish event", "event", name, "error", err)
	}
}
