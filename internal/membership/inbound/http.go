package inbound

import (
	"context"

	"github.com/aruna-labs/identra/internal/membership/usecase"
	"github.com/aruna-labs/identra/internal/pkg/router"
)

type uc interface {
	SiteCreate(ctx context.Context, in usecase.SiteCreateInput) (*usecase.SiteOutput, error)
	SiteList(ctx context.Context) ([]usecase.SiteOutput, error)
	SiteGet(ctx context.Context, in usecase.SiteGetInput) (*usecase.SiteOutput, error)

	MemberAdd(ctx context.Context, in usecase.MemberAddInput) error
	MemberList(ctx context.Context, in usecase.MemberListInput) ([]usecase.MemberOutput, error)
	MemberRoleUpdate(ctx context.Context, in usecase.MemberRoleUpdateInput) error
	MemberRemove(ctx context.Context, in usecase.MemberRemoveInput) error
}

// RegisterHTTPEndpoint mounts the membership routes. All of them need an
// authenticated caller.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Sites
	r.POST("/api/v1/membership/sites", end.SiteCreate)
	r.GET("/api/v1/membership/sites", end.SiteList)
	r.GET("/api/v1/membership/sites/:slug", end.SiteGet)

	// Members
	r.GET("/api/v1/membership/sites/:slug/members", end.MemberList)
	r.POST("/api/v1/membership/sites/:slug/members", end.MemberAdd)
	r.PUT("/api/v1/membership/sites/:slug/members/:userID", end.MemberRoleUpdate)
	r.DELETE("/api/v1/membership/sites/:slug/members/:userID", end.MemberRemove)
}
