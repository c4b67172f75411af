package inbound

import (
	"github.com/aruna-labs/identra/internal/membership/usecase"
	"github.com/aruna-labs/identra/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for sites and their members.
type HTTPEndpoint struct {
	uc uc
}

// SiteCreate provisions a new site owned by the caller.
// @Summary Create site
// @Description Creates a site (tenant) and makes the caller its owner.
// @Tags Membership, Sites
// @Accept json
// @Produce json
// @Param request body SiteCreateRequest true "Site payload"
// @Success 200 {object} router.successResponse{data=SiteResponse} "Site created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 409 {object} router.errorResponse "Slug already taken"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/membership/sites [post]
func (h *HTTPEndpoint) SiteCreate(r *router.Request) (any, error) {
	var req SiteCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SiteCreate(r.Context(), usecase.SiteCreateInput{Slug: req.Slug, Name: req.Name})
	if err != nil {
		return nil, err
	}

	return SiteResponse{ID: resp.ID, Slug: resp.Slug, Name: resp.Name, OwnerID: resp.OwnerID}, nil
}

// SiteList returns the sites the caller belongs to.
// @Summary List sites
// @Description Lists the sites where the caller holds an active membership.
// @Tags Membership, Sites
// @Produce json
// @Success 200 {object} router.successResponse{data=[]SiteResponse} "Sites"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/membership/sites [get]
func (h *HTTPEndpoint) SiteList(r *router.Request) (any, error) {
	resp, err := h.uc.SiteList(r.Context())
	if err != nil {
		return nil, err
	}

	out := make([]SiteResponse, 0, len(resp))
	for _, site := range resp {
		out = append(out, SiteResponse{ID: site.ID, Slug: site.Slug, Name: site.Name, OwnerID: site.OwnerID})
	}
	return out, nil
}

// SiteGet returns one site by slug.
// @Summary Get site
// @Description Returns a site; the caller must be a member.
// @Tags Membership, Sites
// @Produce json
// @Param slug path string true "Site slug"
// @Success 200 {object} router.successResponse{data=SiteResponse} "Site"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Not allowed for this site"
// @Failure 404 {object} router.errorResponse "Site not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/membership/sites/{slug} [get]
func (h *HTTPEndpoint) SiteGet(r *router.Request) (any, error) {
	resp, err := h.uc.SiteGet(r.Context(), usecase.SiteGetInput{Slug: r.GetParam("slug")})
	if err != nil {
		return nil, err
	}

	return SiteResponse{ID: resp.ID, Slug: resp.Slug, Name: resp.Name, OwnerID: resp.OwnerID}, nil
}

// MemberList returns the members of a site.
// @Summary List members
// @Description Lists the members of a site with their roles.
// @Tags Membership, Members
// @Produce json
// @Param slug path string true "Site slug"
// @Success 200 {object} router.successResponse{data=[]MemberResponse} "Members"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Not allowed for this site"
// @Failure 404 {object} router.errorResponse "Site not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/membership/sites/{slug}/members [get]
func (h *HTTPEndpoint) MemberList(r *router.Request) (any, error) {
	resp, err := h.uc.MemberList(r.Context(), usecase.MemberListInput{Slug: r.GetParam("slug")})
	if err != nil {
		return nil, err
	}

	out := make([]MemberResponse, 0, len(resp))
	for _, m := range resp {
		out = append(out, MemberResponse{
			UserID:   m.UserID,
			FullName: m.FullName,
			Role:     m.Role,
			Status:   m.Status,
			JoinedAt: m.JoinedAt,
		})
	}
	return out, nil
}

// MemberAdd attaches an existing user to a site.
// @Summary Add member
// @Description Adds an existing user to the site as admin or member.
// @Tags Membership, Members
// @Accept json
// @Produce json
// @Param slug path string true "Site slug"
// @Param request body MemberAddRequest true "Member payload"
// @Success 200 {object} router.successResponse{data=MemberAddResponse} "Member added"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Not allowed for this site"
// @Failure 404 {object} router.errorResponse "Site or user not found"
// @Failure 409 {object} router.errorResponse "User is already a member"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/membership/sites/{slug}/members [post]
func (h *HTTPEndpoint) MemberAdd(r *router.Request) (any, error) {
	var req MemberAddRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.MemberAdd(r.Context(), usecase.MemberAddInput{
		Slug:   r.GetParam("slug"),
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		return nil, err
	}

	return MemberAddResponse{}, nil
}

// MemberRoleUpdate changes a member's role.
// @Summary Update member role
// @Description Changes a member's role between admin and member. The owner's role cannot change.
// @Tags Membership, Members
// @Accept json
// @Produce json
// @Param slug path string true "Site slug"
// @Param userID path string true "Member user id"
// @Param request body MemberRoleUpdateRequest true "Role payload"
// @Success 200 {object} router.successResponse{data=MemberRoleUpdateResponse} "Role updated"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Not allowed for this site"
// @Failure 404 {object} router.errorResponse "Site or member not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/membership/sites/{slug}/members/{userID} [put]
func (h *HTTPEndpoint) MemberRoleUpdate(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userID")
	if err != nil {
		return nil, err
	}

	var req MemberRoleUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err = h.uc.MemberRoleUpdate(r.Context(), usecase.MemberRoleUpdateInput{
		Slug:   r.GetParam("slug"),
		UserID: userID,
		Role:   req.Role,
	})
	if err != nil {
		return nil, err
	}

	return MemberRoleUpdateResponse{}, nil
}

// MemberRemove detaches a member from a site.
// @Summary Remove member
// @Description Removes a member from the site. Members may remove themselves; the owner cannot be removed.
// @Tags Membership, Members
// @Produce json
// @Param slug path string true "Site slug"
// @Param userID path string true "Member user id"
// @Success 200 {object} router.successResponse{data=MemberRemoveResponse} "Member removed"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Not allowed for this site"
// @Failure 404 {object} router.errorResponse "Site or member not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/membership/sites/{slug}/members/{userID} [delete]
func (h *HTTPEndpoint) MemberRemove(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userID")
	if err != nil {
		return nil, err
	}

	err = h.uc.MemberRemove(r.Context(), usecase.MemberRemoveInput{
		Slug:   r.GetParam("slug"),
		UserID: userID,
	})
	if err != nil {
		return nil, err
	}

	return MemberRemoveResponse{}, nil
}
