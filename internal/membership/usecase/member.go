package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/membership/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type MemberAddInput struct {
	Slug   string `validate:"required,min=3,max=63"`
	UserID int64  `validate:"required,gt=0"`
	Role   string `validate:"required,oneof=admin member"`
}

type MemberOutput struct {
	UserID   int64
	FullName string
	Role     string
	Status   string
	JoinedAt string
}

// MemberAdd attaches an existing user to a site. Only admins and the
// owner may add members, and nobody can be added as owner.
func (s *Usecase) MemberAdd(ctx context.Context, in MemberAddInput) error {
	ctx, span := s.startSpan(ctx, "MemberAdd")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	site, err := s.getSite(ctx, in.Slug)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, site.ID, ObjectMember, ActionWrite); err != nil {
		return err
	}

	exists, err := s.repoDB.UserExists(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check user", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !exists {
		return goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}

	role := entity.RoleFromString(in.Role)
	m := entity.Membership{
		SiteID:    site.ID,
		UserID:    in.UserID,
		Role:      role,
		Status:    entity.MemberStatusActive,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repoDB.AddMember(ctx, m); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return goerror.NewBusiness("User is already a member of this site", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo add member", "site_id", site.ID, "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return s.grantRole(ctx, site.ID, in.UserID, role)
}

type MemberListInput struct {
	Slug string `validate:"required,min=3,max=63"`
}

// MemberList returns the active members of a site.
func (s *Usecase) MemberList(ctx context.Context, in MemberListInput) ([]MemberOutput, error) {
	ctx, span := s.startSpan(ctx, "MemberList")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	site, err := s.getSite(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, site.ID, ObjectMember, ActionRead); err != nil {
		return nil, err
	}

	members, err := s.repoDB.ListMembers(ctx, site.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list members", "site_id", site.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := make([]MemberOutput, 0, len(members))
	for _, m := range members {
		out = append(out, MemberOutput{
			UserID:   m.UserID,
			FullName: m.FullName,
			Role:     m.Role.String(),
			Status:   m.Status.String(),
			JoinedAt: m.JoinedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out, nil
}

type MemberRoleUpdateInput struct {
	Slug   string `validate:"required,min=3,max=63"`
	UserID int64  `validate:"required,gt=0"`
	Role   string `validate:"required,oneof=admin member"`
}

// MemberRoleUpdate changes a member's role. Reserved for roles with the
// manage action, and the owner's role is immutable.
func (s *Usecase) MemberRoleUpdate(ctx context.Context, in MemberRoleUpdateInput) error {
	ctx, span := s.startSpan(ctx, "MemberRoleUpdate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	site, err := s.getSite(ctx, in.Slug)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, site.ID, ObjectSite, ActionManage); err != nil {
		return err
	}

	current, err := s.getMembership(ctx, site.ID, in.UserID)
	if err != nil {
		return err
	}
	if current.Role == entity.RoleOwner {
		return goerror.NewBusiness("The owner role cannot be changed", goerror.CodeForbidden)
	}

	role := entity.RoleFromString(in.Role)
	if err := s.repoDB.UpdateMemberRole(ctx, site.ID, in.UserID, role); err != nil {
		slog.ErrorContext(ctx, "failed to repo update member role", "site_id", site.ID, "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.revokeRoles(ctx, site.ID, in.UserID); err != nil {
		return err
	}
	return s.grantRole(ctx, site.ID, in.UserID, role)
}

type MemberRemoveInput struct {
	Slug   string `validate:"required,min=3,max=63"`
	UserID int64  `validate:"required,gt=0"`
}

// MemberRemove detaches a member from a site. Members may remove
// themselves; removing others needs the write action. The owner cannot
// be removed.
func (s *Usecase) MemberRemove(ctx context.Context, in MemberRemoveInput) error {
	ctx, span := s.startSpan(ctx, "MemberRemove")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	site, err := s.getSite(ctx, in.Slug)
	if err != nil {
		return err
	}
	if clm.AccountID != in.UserID {
		if _, err := s.authorize(ctx, site.ID, ObjectMember, ActionWrite); err != nil {
			return err
		}
	}

	current, err := s.getMembership(ctx, site.ID, in.UserID)
	if err != nil {
		return err
	}
	if current.Role == entity.RoleOwner {
		return goerror.NewBusiness("The site owner cannot be removed", goerror.CodeForbidden)
	}

	if err := s.repoDB.RemoveMember(ctx, site.ID, in.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to repo remove member", "site_id", site.ID, "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return s.revokeRoles(ctx, site.ID, in.UserID)
}

func (s *Usecase) getMembership(ctx context.Context, siteID, userID int64) (*entity.Membership, error) {
	m, err := s.repoDB.GetMembership(ctx, siteID, userID)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Member not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get membership", "site_id", siteID, "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return m, nil
}
