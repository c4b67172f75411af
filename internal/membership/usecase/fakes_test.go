package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"

	"github.com/aruna-labs/identra/internal/membership/entity"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

type memberKey struct {
	siteID int64
	userID int64
}

type fakeRepo struct {
	sites   map[int64]entity.Site
	members map[memberKey]entity.Membership
	users   map[int64]string

	failAll bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sites:   map[int64]entity.Site{},
		members: map[memberKey]entity.Membership{},
		users:   map[int64]string{},
	}
}

var errBoom = goerror.NewServer(context.DeadlineExceeded)

func (f *fakeRepo) CreateSite(_ context.Context, site entity.Site, owner entity.Membership) error {
	if f.failAll {
		return errBoom
	}
	for _, s := range f.sites {
		if s.Slug == site.Slug {
			return goerror.ErrConflict
		}
	}
	f.sites[site.ID] = site
	f.members[memberKey{site.ID, owner.UserID}] = owner
	return nil
}

func (f *fakeRepo) GetSiteBySlug(_ context.Context, slug string) (*entity.Site, error) {
	if f.failAll {
		return nil, errBoom
	}
	for _, s := range f.sites {
		if s.Slug == slug {
			out := s
			return &out, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) ListSitesByUser(_ context.Context, userID int64) ([]entity.Site, error) {
	if f.failAll {
		return nil, errBoom
	}
	var out []entity.Site
	for k, m := range f.members {
		if k.userID == userID && m.Status == entity.MemberStatusActive {
			out = append(out, f.sites[k.siteID])
		}
	}
	return out, nil
}

func (f *fakeRepo) AddMember(_ context.Context, m entity.Membership) error {
	if f.failAll {
		return errBoom
	}
	key := memberKey{m.SiteID, m.UserID}
	if _, ok := f.members[key]; ok {
		return goerror.ErrConflict
	}
	f.members[key] = m
	return nil
}

func (f *fakeRepo) GetMembership(_ context.Context, siteID, userID int64) (*entity.Membership, error) {
	if f.failAll {
		return nil, errBoom
	}
	m, ok := f.members[memberKey{siteID, userID}]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &m, nil
}

func (f *fakeRepo) ListMembers(_ context.Context, siteID int64) ([]entity.Member, error) {
	if f.failAll {
		return nil, errBoom
	}
	var out []entity.Member
	for k, m := range f.members {
		if k.siteID == siteID {
			out = append(out, entity.Member{
				UserID:   m.UserID,
				FullName: f.users[m.UserID],
				Role:     m.Role,
				Status:   m.Status,
				JoinedAt: m.CreatedAt,
			})
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateMemberRole(_ context.Context, siteID, userID int64, role entity.Role) error {
	if f.failAll {
		return errBoom
	}
	key := memberKey{siteID, userID}
	m, ok := f.members[key]
	if !ok {
		return goerror.ErrNotFound
	}
	m.Role = role
	f.members[key] = m
	return nil
}

func (f *fakeRepo) RemoveMember(_ context.Context, siteID, userID int64) error {
	if f.failAll {
		return errBoom
	}
	key := memberKey{siteID, userID}
	if _, ok := f.members[key]; !ok {
		return goerror.ErrNotFound
	}
	delete(f.members, key)
	return nil
}

func (f *fakeRepo) UserExists(_ context.Context, userID int64) (bool, error) {
	if f.failAll {
		return false, errBoom
	}
	_, ok := f.users[userID]
	return ok, nil
}

type seqNumberID struct{ next int64 }

func (s *seqNumberID) Generate() int64 {
	s.next++
	return s.next
}

const testRBACModel = `
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub, r.dom) && (p.dom == "*" || r.dom == p.dom) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

func newTestEnforcer(t *testing.T) *casbin.Enforcer {
	t.Helper()

	m, err := model.NewModelFromString(testRBACModel)
	if err != nil {
		t.Fatalf("model.NewModelFromString() error = %v", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatalf("casbin.NewEnforcer() error = %v", err)
	}

	policies := [][]string{
		{"owner", "*", "*", "*"},
		{"admin", "*", ObjectSite, ActionRead},
		{"admin", "*", ObjectSite, ActionWrite},
		{"admin", "*", ObjectMember, ActionRead},
		{"admin", "*", ObjectMember, ActionWrite},
		{"member", "*", ObjectSite, ActionRead},
		{"member", "*", ObjectMember, ActionRead},
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p); err != nil {
			t.Fatalf("enforcer.AddPolicy(%v) error = %v", p, err)
		}
	}
	return e
}

type fixture struct {
	uc       *Usecase
	repo     *fakeRepo
	enforcer *casbin.Enforcer
	clk      *clock.Static
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeRepo()
	enforcer := newTestEnforcer(t)
	clk := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator.NewV10Validator() error = %v", err)
	}

	uc := New(Dependency{
		RepoDB:     repo,
		Enforcer:   enforcer,
		Validator:  v,
		UID:        &seqNumberID{next: 500},
		Clock:      clk,
		Instrument: instrument.NewNoop(),
	})

	return &fixture{uc: uc, repo: repo, enforcer: enforcer, clk: clk}
}

func (f *fixture) addUser(id int64, name string) {
	f.repo.users[id] = name
}

// createSite provisions a site owned by ownerID and returns its slug.
func (f *fixture) createSite(t *testing.T, ownerID int64, slug string) *SiteOutput {
	t.Helper()

	out, err := f.uc.SiteCreate(authCtx(ownerID), SiteCreateInput{Slug: slug, Name: "Site " + slug})
	if err != nil {
		t.Fatalf("SiteCreate(%q) error = %v", slug, err)
	}
	return out
}

func authCtx(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{AccountID: userID})
}

func wantCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %v, got nil", code)
	}
	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if ge.Code() != code {
		t.Fatalf("error code = %v, want %v (msg %q)", ge.Code(), code, ge.Msg())
	}
}
