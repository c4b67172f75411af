package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/casbin/casbin/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/aruna-labs/identra/internal/membership/entity"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

// Objects and actions checked against the policy engine. Policies are
// domain-scoped: the domain is the site id.
const (
	ObjectSite   = "site"
	ObjectMember = "member"

	ActionRead   = "read"
	ActionWrite  = "write"
	ActionManage = "manage"
)

type repoDB interface {
	CreateSite(ctx context.Context, site entity.Site, owner entity.Membership) error
	GetSiteBySlug(ctx context.Context, slug string) (*entity.Site, error)
	ListSitesByUser(ctx context.Context, userID int64) ([]entity.Site, error)

	AddMember(ctx context.Context, m entity.Membership) error
	GetMembership(ctx context.Context, siteID, userID int64) (*entity.Membership, error)
	ListMembers(ctx context.Context, siteID int64) ([]entity.Member, error)
	UpdateMemberRole(ctx context.Context, siteID, userID int64, role entity.Role) error
	RemoveMember(ctx context.Context, siteID, userID int64) error

	UserExists(ctx context.Context, userID int64) (bool, error)
}

// Usecase hosts the tenant flows: sites and their memberships.
type Usecase struct {
	repoDB    repoDB
	enforcer  *casbin.Enforcer
	validator validator.Validator
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Enforcer   *casbin.Enforcer
	Validator  validator.Validator
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		enforcer:  dep.Enforcer,
		validator: dep.Validator,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("membership.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// authorize checks the caller's role in the site against the policy engine.
func (s *Usecase) authorize(ctx context.Context, siteID int64, obj, act string) (*jwt.Claims, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	sub := strconv.FormatInt(clm.AccountID, 10)
	dom := strconv.FormatInt(siteID, 10)
	ok, err := s.enforcer.Enforce(sub, dom, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", clm.AccountID, "site_id", siteID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		return nil, goerror.NewBusiness("Not allowed for this site", goerror.CodeForbidden)
	}

	return clm, nil
}

func (s *Usecase) grantRole(ctx context.Context, siteID, userID int64, role entity.Role) error {
	sub := strconv.FormatInt(userID, 10)
	dom := strconv.FormatInt(siteID, 10)
	if _, err := s.enforcer.AddRoleForUserInDomain(sub, role.String(), dom); err != nil {
		slog.ErrorContext(ctx, "failed to grant role", "user_id", userID, "site_id", siteID, "role", role, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}

func (s *Usecase) revokeRoles(ctx context.Context, siteID, userID int64) error {
	sub := strconv.FormatInt(userID, 10)
	dom := strconv.FormatInt(siteID, 10)
	if _, err := s.enforcer.DeleteRolesForUserInDomain(sub, dom); err != nil {
		slog.ErrorContext(ctx, "failed to revoke roles", "user_id", userID, "site_id", siteID, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}
