package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	pqotp "github.com/pquerna/otp"

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
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

type userRow struct {
	user     entity.User
	password string
}

// fakeRepo is an in-memory repoDB.
type fakeRepo struct {
	users       map[int64]*userRow
	sessions    map[int64]*entity.RefreshSession
	challenges  map[int64]*entity.LoginChallenge
	factors     map[int64]*entity.TOTPFactor
	credChanges map[int64]*entity.CredentialChange
	failAll     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:       map[int64]*userRow{},
		sessions:    map[int64]*entity.RefreshSession{},
		challenges:  map[int64]*entity.LoginChallenge{},
		factors:     map[int64]*entity.TOTPFactor{},
		credChanges: map[int64]*entity.CredentialChange{},
	}
}

func (r *fakeRepo) addUser(u entity.User, password string) {
	r.users[u.ID] = &userRow{user: u, password: password}
}

func (r *fakeRepo) findByIdentifier(identifier string) *userRow {
	for _, row := range r.users {
		if row.user.Email == identifier || row.user.Phone == identifier {
			return row
		}
	}
	return nil
}

func (r *fakeRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	row, ok := r.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	u := row.user
	return &u, nil
}

func (r *fakeRepo) GetUserByIdentifier(_ context.Context, identifier string) (*entity.User, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	row := r.findByIdentifier(identifier)
	if row == nil {
		return nil, goerror.ErrNotFound
	}
	u := row.user
	return &u, nil
}

func (r *fakeRepo) GetUserLoginInfo(_ context.Context, identifier string) (*entity.UserLoginInfo, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	row := r.findByIdentifier(identifier)
	if row == nil {
		return nil, goerror.ErrNotFound
	}
	totpEnabled := false
	for _, f := range r.factors {
		if f.UserID == row.user.ID && f.Confirmed {
			totpEnabled = true
		}
	}
	return &entity.UserLoginInfo{
		ID:          row.user.ID,
		Email:       row.user.Email,
		Phone:       row.user.Phone,
		FullName:    row.user.FullName,
		Status:      row.user.Status,
		Password:    row.password,
		TOTPEnabled: totpEnabled,
	}, nil
}

func (r *fakeRepo) CreateUser(_ context.Context, user entity.NewUser, passwordHash string) error {
	if r.failAll != nil {
		return r.failAll
	}
	identifier := user.Email
	if identifier == "" {
		identifier = user.Phone
	}
	if r.findByIdentifier(identifier) != nil {
		return goerror.ErrConflict
	}
	r.users[user.ID] = &userRow{
		user: entity.User{
			ID:        user.ID,
			Email:     user.Email,
			Phone:     user.Phone,
			FullName:  user.FullName,
			AvatarURL: user.AvatarURL,
			Status:    user.Status,
		},
		password: passwordHash,
	}
	return nil
}

func (r *fakeRepo) ActivateUser(_ context.Context, userID int64) error {
	row, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	row.user.Status = entity.UserStatusActive
	return nil
}

func (r *fakeRepo) UpdateUserPassword(_ context.Context, userID int64, passwordHash string) error {
	row, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	row.password = passwordHash
	return nil
}

func (r *fakeRepo) UpdateUserProfile(_ context.Context, userID int64, fullName, avatarURL string) error {
	row, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	row.user.FullName = fullName
	row.user.AvatarURL = avatarURL
	return nil
}

func (r *fakeRepo) UpsertOAuthUser(_ context.Context, user entity.NewUser) (int64, error) {
	if r.failAll != nil {
		return 0, r.failAll
	}
	if row := r.findByIdentifier(user.Email); row != nil {
		return row.user.ID, nil
	}
	if err := r.CreateUser(context.Background(), user, ""); err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (r *fakeRepo) CreateCredentialChange(_ context.Context, ch entity.CredentialChange) error {
	c := ch
	r.credChanges[ch.ID] = &c
	return nil
}

func (r *fakeRepo) GetCredentialChange(_ context.Context, userID int64, newIdentifier string) (*entity.CredentialChange, error) {
	for _, ch := range r.credChanges {
		if ch.UserID == userID && ch.NewIdentifier == newIdentifier {
			c := *ch
			return &c, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) ApplyCredentialChange(_ context.Context, ch entity.CredentialChange) error {
	if r.findByIdentifier(ch.NewIdentifier) != nil {
		return goerror.ErrConflict
	}
	row, ok := r.users[ch.UserID]
	if !ok {
		return goerror.ErrNotFound
	}
	if ch.IsEmail {
		row.user.Email = ch.NewIdentifier
	} else {
		row.user.Phone = ch.NewIdentifier
	}
	delete(r.credChanges, ch.ID)
	return nil
}

func (r *fakeRepo) CreateSession(_ context.Context, sess entity.RefreshSession) error {
	if r.failAll != nil {
		return r.failAll
	}
	s := sess
	r.sessions[sess.ID] = &s
	return nil
}

func (r *fakeRepo) GetSessionByTokenHash(_ context.Context, tokenHash string) (*entity.SessionUser, error) {
	for _, sess := range r.sessions {
		if sess.Token != tokenHash {
			continue
		}
		row, ok := r.users[sess.UserID]
		if !ok {
			return nil, goerror.ErrNotFound
		}
		return &entity.SessionUser{
			SessionID:    sess.ID,
			Token:        sess.Token,
			Revoked:      sess.Revoked,
			ReplacedByID: sess.ReplacedByID,
			ExpiresAt:    sess.ExpiresAt,
			UserID:       row.user.ID,
			UserEmail:    row.user.Email,
			UserPhone:    row.user.Phone,
			UserStatus:   row.user.Status,
		}, nil
	}
	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) RotateSession(_ context.Context, ro entity.RotateSession) error {
	old, ok := r.sessions[ro.OldID]
	if !ok {
		return goerror.ErrNotFound
	}
	old.Revoked = true
	old.ReplacedByID = ro.NewID
	r.sessions[ro.NewID] = &entity.RefreshSession{
		ID:        ro.NewID,
		UserID:    ro.UserID,
		Token:     ro.NewToken,
		ExpiresAt: ro.NewExpiresAt,
	}
	return nil
}

func (r *fakeRepo) RevokeSession(_ context.Context, tokenHash string) error {
	for _, sess := range r.sessions {
		if sess.Token == tokenHash {
			sess.Revoked = true
			return nil
		}
	}
	return goerror.ErrNotFound
}

func (r *fakeRepo) RevokeAllSessions(_ context.Context, userID int64) error {
	for _, sess := range r.sessions {
		if sess.UserID == userID {
			sess.Revoked = true
		}
	}
	return nil
}

func (r *fakeRepo) CreateChallenge(_ context.Context, ch entity.LoginChallenge) error {
	c := ch
	r.challenges[ch.ID] = &c
	return nil
}

func (r *fakeRepo) GetChallengeByTokenHash(_ context.Context, tokenHash string) (*entity.ChallengeUser, error) {
	for _, ch := range r.challenges {
		if ch.Token != tokenHash {
			continue
		}
		row, ok := r.users[ch.UserID]
		if !ok {
			return nil, goerror.ErrNotFound
		}
		return &entity.ChallengeUser{
			ChallengeID: ch.ID,
			Purpose:     ch.Purpose,
			ExpiresAt:   ch.ExpiresAt,
			UserID:      row.user.ID,
			UserEmail:   row.user.Email,
			UserPhone:   row.user.Phone,
			UserStatus:  row.user.Status,
		}, nil
	}
	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) DeleteChallenge(_ context.Context, id int64) error {
	delete(r.challenges, id)
	return nil
}

func (r *fakeRepo) CreateTOTPFactor(_ context.Context, f entity.TOTPFactor) error {
	c := f
	r.factors[f.ID] = &c
	return nil
}

func (r *fakeRepo) GetTOTPFactor(_ context.Context, userID int64, confirmedOnly bool) (*entity.TOTPFactor, error) {
	var latest *entity.TOTPFactor
	for _, f := range r.factors {
		if f.UserID != userID {
			continue
		}
		if confirmedOnly && !f.Confirmed {
			continue
		}
		if latest == nil || f.ID > latest.ID {
			latest = f
		}
	}
	if latest == nil {
		return nil, goerror.ErrNotFound
	}
	c := *latest
	return &c, nil
}

func (r *fakeRepo) ConfirmTOTPFactor(_ context.Context, factorID, userID int64) error {
	f, ok := r.factors[factorID]
	if !ok || f.UserID != userID {
		return goerror.ErrNotFound
	}
	f.Confirmed = true
	return nil
}

// fakeMessaging records published events.
type fakeMessaging struct {
	registered     []UserRegisteredEvent
	passwordChange []PasswordChangedEvent
	credChange     []CredentialChangedEvent
}

func (m *fakeMessaging) PublishUserRegistered(_ context.Context, msg UserRegisteredEvent) error {
	m.registered = append(m.registered, msg)
	return nil
}

func (m *fakeMessaging) PublishPasswordChanged(_ context.Context, msg PasswordChangedEvent) error {
	m.passwordChange = append(m.passwordChange, msg)
	return nil
}

func (m *fakeMessaging) PublishCredentialChanged(_ context.Context, msg CredentialChangedEvent) error {
	m.credChange = append(m.credChange, msg)
	return nil
}

// fakeOTP hands out a fixed code and resolves accounts like the real
// service does: against the repo at issuance time.
type fakeOTP struct {
	repo        *fakeRepo
	code        string
	ttl         time.Duration
	clk         *clock.Static
	issueStatus otp.Status
	issued      []otp.Identifier
	accounts    map[otp.Identifier]int64
	verified    map[otp.Identifier]bool
}

func newFakeOTP(repo *fakeRepo, clk *clock.Static) *fakeOTP {
	return &fakeOTP{
		repo:        repo,
		code:        "123456",
		ttl:         5 * time.Minute,
		clk:         clk,
		issueStatus: otp.StatusOK,
		accounts:    map[otp.Identifier]int64{},
		verified:    map[otp.Identifier]bool{},
	}
}

func (f *fakeOTP) TTL() time.Duration { return f.ttl }

func (f *fakeOTP) Issue(_ context.Context, id otp.Identifier) (otp.IssueResult, error) {
	f.issued = append(f.issued, id)
	if f.issueStatus != otp.StatusOK {
		return otp.IssueResult{Status: f.issueStatus}, nil
	}
	if row := f.repo.findByIdentifier(id.String()); row != nil {
		f.accounts[id] = row.user.ID
	} else {
		f.accounts[id] = 0
	}
	f.verified[id] = false
	return otp.IssueResult{Status: otp.StatusOK, ExpiresAt: f.clk.Now().Add(f.ttl)}, nil
}

func (f *fakeOTP) Verify(_ context.Context, id otp.Identifier, code string) (otp.VerifyResult, error) {
	used, issued := f.verified[id]
	if !issued || code != f.code {
		return otp.VerifyResult{Status: otp.StatusNotFound}, nil
	}
	if used {
		return otp.VerifyResult{Status: otp.StatusAlreadyUsed}, nil
	}
	f.verified[id] = true
	return otp.VerifyResult{Status: otp.StatusOK, AccountID: f.accounts[id]}, nil
}

type fakeOAuth struct {
	user *OAuthUser
	err  error
}

func (f *fakeOAuth) Exchange(context.Context, string, string) (*OAuthUser, error) {
	return f.user, f.err
}

// passIdemp always executes; keys are not tracked.
type passIdemp struct{}

func (passIdemp) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}
func (passIdemp) MarkCompleted(context.Context, string, time.Duration) error { return nil }
func (passIdemp) MarkFailed(context.Context, string, time.Duration) error    { return nil }
func (passIdemp) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	return fn(ctx)
}

type seqNumberID struct{ n int64 }

func (s *seqNumberID) Generate() int64 {
	s.n++
	return s.n
}

type seqStringID struct{ n int }

func (s *seqStringID) Generate() string {
	s.n++
	return fmt.Sprintf("opaque-token-%04d", s.n)
}

type fixture struct {
	uc        *Usecase
	repo      *fakeRepo
	mq        *fakeMessaging
	otp       *fakeOTP
	otpCred   *fakeOTP
	oauth     *fakeOAuth
	clk       *clock.Static
	bcrypt    hash.Hash
	totp      totp.TOTP
	encryptor mfa.Encryptor
}

const testConfigYAML = `
modules:
  identity:
    default_country_code: "+1"
    refresh_ttl_hours: 720
    challenge_ttl_minutes: 5
`

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

	clk := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "identra-test",
		Audiences: []string{"identra"},
		TTL:       15 * time.Minute,
		Clock:     clk,
		UUID:      &seqStringID{},
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	repo := newFakeRepo()
	mq := &fakeMessaging{}
	general := newFakeOTP(repo, clk)
	credential := newFakeOTP(repo, clk)
	credential.ttl = 10 * time.Minute
	oauth := &fakeOAuth{}
	bcryptHash := hash.NewBcrypt(4, "")
	totpGen := totp.New("identra-test", 30, 1, pqotp.DigitsSix)
	encryptor := mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: []byte(strings.Repeat("e", 32))})

	uc := New(Dependency{
		RepoDB:        repo,
		RepoMessaging: mq,
		OTPGeneral:    general,
		OTPCredential: credential,
		OAuth:         oauth,
		Idempotency:   passIdemp{},
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("test-hmac-secret"),
		Password:      bcryptHash,
		MFAEncryptor:  encryptor,
		UID:           &seqNumberID{n: 1000},
		OID:           &seqStringID{},
		Totp:          totpGen,
		Clock:         clk,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
	})

	return &fixture{
		uc:        uc,
		repo:      repo,
		mq:        mq,
		otp:       general,
		otpCred:   credential,
		oauth:     oauth,
		clk:       clk,
		bcrypt:    bcryptHash,
		totp:      totpGen,
		encryptor: encryptor,
	}
}

// addActiveUser seeds an active user with the given password.
func (f *fixture) addActiveUser(t *testing.T, id int64, email, password string) {
	t.Helper()
	hashed, err := f.bcrypt.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f.repo.addUser(entity.User{
		ID:       id,
		Email:    email,
		FullName: "Test User",
		Status:   entity.UserStatusActive,
	}, string(hashed))
}

// authCtx returns a context carrying claims for the user.
func authCtx(userID int64, email string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{AccountID: userID, Email: email})
}
