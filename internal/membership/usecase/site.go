package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/membership/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type SiteCreateInput struct {
	Slug string `validate:"required,min=3,max=63,lowercase,hostname_rfc1123"`
	Name string `validate:"required,min=2,max=100"`
}

type SiteOutput struct {
	ID      int64
	Slug    string
	Name    string
	OwnerID int64
}

// SiteCreate provisions a tenant and makes the caller its owner.
func (s *Usecase) SiteCreate(ctx context.Context, in SiteCreateInput) (*SiteOutput, error) {
	ctx, span := s.startSpan(ctx, "SiteCreate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	site := entity.Site{
		ID:        s.uid.Generate(),
		Slug:      in.Slug,
		Name:      in.Name,
		OwnerID:   clm.AccountID,
		CreatedAt: s.clock.Now(),
	}
	owner := entity.Membership{
		SiteID:    site.ID,
		UserID:    clm.AccountID,
		Role:      entity.RoleOwner,
		Status:    entity.MemberStatusActive,
		CreatedAt: site.CreatedAt,
	}

	if err := s.repoDB.CreateSite(ctx, site, owner); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("Slug already taken", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo create site", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.grantRole(ctx, site.ID, clm.AccountID, entity.RoleOwner); err != nil {
		return nil, err
	}

	return &SiteOutput{ID: site.ID, Slug: site.Slug, Name: site.Name, OwnerID: site.OwnerID}, nil
}

// SiteList returns the sites the caller belongs to.
func (s *Usecase) SiteList(ctx context.Context) ([]SiteOutput, error) {
	ctx, span := s.startSpan(ctx, "SiteList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	sites, err := s.repoDB.ListSitesByUser(ctx, clm.AccountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list sites", "user_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := make([]SiteOutput, 0, len(sites))
	for _, site := range sites {
		out = append(out, SiteOutput{ID: site.ID, Slug: site.Slug, Name: site.Name, OwnerID: site.OwnerID})
	}
	return out, nil
}

type SiteGetInput struct {
	Slug string `validate:"required,min=3,max=63"`
}

// SiteGet returns one site; the caller must be a member.
func (s *Usecase) SiteGet(ctx context.Context, in SiteGetInput) (*SiteOutput, error) {
	ctx, span := s.startSpan(ctx, "SiteGet")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	site, err := s.getSite(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, site.ID, ObjectSite, ActionRead); err != nil {
		return nil, err
	}

	return &SiteOutput{ID: site.ID, Slug: site.Slug, Name: site.Name, OwnerID: site.OwnerID}, nil
}

func (s *Usecase) getSite(ctx context.Context, slug string) (*entity.Site, error) {
	site, err := s.repoDB.GetSiteBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Site not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get site", "slug", slug, "error", err)
		return nil, goerror.NewServer(err)
	}
	return site, nil
}
