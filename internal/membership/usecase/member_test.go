package usecase

import (
	"testing"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func TestMemberAddAndList(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.addUser(2, "Grace Hopper")
	f.createSite(t, 1, "acme")

	err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 2, Role: "member"})
	if err != nil {
		t.Fatalf("MemberAdd() error = %v", err)
	}

	members, err := f.uc.MemberList(authCtx(2), MemberListInput{Slug: "acme"})
	if err != nil {
		t.Fatalf("MemberList() as new member error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("MemberList() returned %d members, want 2", len(members))
	}

	byID := map[int64]MemberOutput{}
	for _, m := range members {
		byID[m.UserID] = m
	}
	if byID[1].Role != "owner" || byID[2].Role != "member" {
		t.Errorf("roles = %q/%q, want owner/member", byID[1].Role, byID[2].Role)
	}
	if byID[2].FullName != "Grace Hopper" {
		t.Errorf("member full name = %q, want Grace Hopper", byID[2].FullName)
	}
}

func TestMemberAddRequiresWriteRole(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.addUser(2, "Grace Hopper")
	f.addUser(3, "Alan Turing")
	f.createSite(t, 1, "acme")

	if err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 2, Role: "member"}); err != nil {
		t.Fatalf("MemberAdd() by owner error = %v", err)
	}

	// A plain member cannot add others, an admin can.
	err := f.uc.MemberAdd(authCtx(2), MemberAddInput{Slug: "acme", UserID: 3, Role: "member"})
	wantCode(t, err, goerror.CodeForbidden)

	if err := f.uc.MemberRoleUpdate(authCtx(1), MemberRoleUpdateInput{Slug: "acme", UserID: 2, Role: "admin"}); err != nil {
		t.Fatalf("MemberRoleUpdate() error = %v", err)
	}
	if err := f.uc.MemberAdd(authCtx(2), MemberAddInput{Slug: "acme", UserID: 3, Role: "member"}); err != nil {
		t.Fatalf("MemberAdd() by promoted admin error = %v", err)
	}
}

func TestMemberAddUnknownUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.createSite(t, 1, "acme")

	err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 99, Role: "member"})
	wantCode(t, err, goerror.CodeNotFound)
}

func TestMemberAddDuplicate(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.addUser(2, "Grace Hopper")
	f.createSite(t, 1, "acme")

	if err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 2, Role: "member"}); err != nil {
		t.Fatalf("MemberAdd() error = %v", err)
	}
	err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 2, Role: "admin"})
	wantCode(t, err, goerror.CodeConflict)
}

func TestMemberAddRejectsOwnerRole(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.addUser(2, "Grace Hopper")
	f.createSite(t, 1, "acme")

	err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 2, Role: "owner"})
	wantCode(t, err, goerror.CodeInvalidInput)
}

func TestMemberRoleUpdateCannotTouchOwner(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.createSite(t, 1, "acme")

	err := f.uc.MemberRoleUpdate(authCtx(1), MemberRoleUpdateInput{Slug: "acme", UserID: 1, Role: "member"})
	wantCode(t, err, goerror.CodeForbidden)
}

func TestMemberRoleUpdateRequiresManage(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.addUser(2, "Grace Hopper")
	f.addUser(3, "Alan Turing")
	f.createSite(t, 1, "acme")

	if err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 2, Role: "admin"}); err != nil {
		t.Fatalf("MemberAdd() error = %v", err)
	}
	if err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 3, Role: "member"}); err != nil {
		t.Fatalf("MemberAdd() error = %v", err)
	}

	// Admins hold write but not manage, so role changes stay with the owner.
	err := f.uc.MemberRoleUpdate(authCtx(2), MemberRoleUpdateInput{Slug: "acme", UserID: 3, Role: "admin"})
	wantCode(t, err, goerror.CodeForbidden)
}

func TestMemberRemoveSelf(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.addUser(2, "Grace Hopper")
	f.createSite(t, 1, "acme")

	if err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 2, Role: "member"}); err != nil {
		t.Fatalf("MemberAdd() error = %v", err)
	}
	if err := f.uc.MemberRemove(authCtx(2), MemberRemoveInput{Slug: "acme", UserID: 2}); err != nil {
		t.Fatalf("MemberRemove() self error = %v", err)
	}

	// Revoking the role must also drop site access.
	_, err := f.uc.SiteGet(authCtx(2), SiteGetInput{Slug: "acme"})
	wantCode(t, err, goerror.CodeForbidden)
}

func TestMemberRemoveByPlainMemberDenied(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.addUser(2, "Grace Hopper")
	f.addUser(3, "Alan Turing")
	f.createSite(t, 1, "acme")

	if err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 2, Role: "member"}); err != nil {
		t.Fatalf("MemberAdd() error = %v", err)
	}
	if err := f.uc.MemberAdd(authCtx(1), MemberAddInput{Slug: "acme", UserID: 3, Role: "member"}); err != nil {
		t.Fatalf("MemberAdd() error = %v", err)
	}

	err := f.uc.MemberRemove(authCtx(2), MemberRemoveInput{Slug: "acme", UserID: 3})
	wantCode(t, err, goerror.CodeForbidden)
}

func TestMemberRemoveOwnerDenied(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.createSite(t, 1, "acme")

	err := f.uc.MemberRemove(authCtx(1), MemberRemoveInput{Slug: "acme", UserID: 1})
	wantCode(t, err, goerror.CodeForbidden)
}

func TestMemberRemoveUnknownMember(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "Ada Lovelace")
	f.createSite(t, 1, "acme")

	err := f.uc.MemberRemove(authCtx(1), MemberRemoveInput{Slug: "acme", UserID: 42})
	wantCode(t, err, goerror.CodeNotFound)
}
