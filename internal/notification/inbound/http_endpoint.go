package inbound

import (
	"github.com/aruna-labs/identra/internal/notification/usecase"
	"github.com/aruna-labs/identra/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the notification feed and
// per-user preferences.
type HTTPEndpoint struct {
	uc uc
}

// NotificationList returns the caller's feed.
// @Summary List notifications
// @Description Lists the caller's notification feed, newest first, with the unread count.
// @Tags Notification
// @Produce json
// @Param status query string false "Filter: all, unread, read" Enums(all, unread, read)
// @Param limit query int false "Page size (max 100, default 20)"
// @Param offset query int false "Page offset"
// @Success 200 {object} router.successResponse{data=NotificationsResponse} "Notifications"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (h *HTTPEndpoint) NotificationList(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.NotificationList(r.Context(), usecase.NotificationListInput{
		Status: r.GetQuery("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	items := make([]NotificationResponse, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, NotificationResponse{
			ID:         item.ID,
			CategoryID: item.CategoryID,
			TriggerKey: item.TriggerKey.String(),
			Data:       item.Data,
			Metadata:   item.Metadata,
			ReadAt:     item.ReadAt,
			CreatedAt:  item.CreatedAt,
		})
	}

	return NotificationsResponse{Notifications: items, UnreadCount: resp.UnreadCount}, nil
}

// NotificationMarkRead marks one feed entry as read.
// @Summary Mark notification read
// @Description Marks a single feed entry as read.
// @Tags Notification
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} router.successResponse "Marked"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [patch]
func (h *HTTPEndpoint) NotificationMarkRead(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.NotificationMarkRead(r.Context(), usecase.NotificationMarkReadInput{ID: id}); err != nil {
		return nil, err
	}

	return nil, nil
}

// NotificationMarkAllRead marks every unread feed entry as read.
// @Summary Mark all notifications read
// @Description Marks all of the caller's unread feed entries as read.
// @Tags Notification
// @Produce json
// @Success 200 {object} router.successResponse "Marked"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [put]
func (h *HTTPEndpoint) NotificationMarkAllRead(r *router.Request) (any, error) {
	if err := h.uc.NotificationMarkAllRead(r.Context()); err != nil {
		return nil, err
	}

	return nil, nil
}

// NotificationDelete removes one feed entry.
// @Summary Delete notification
// @Description Soft-deletes a feed entry so it no longer appears in the feed.
// @Tags Notification
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} router.successResponse "Deleted"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/notifications/{id} [delete]
func (h *HTTPEndpoint) NotificationDelete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.NotificationDelete(r.Context(), usecase.NotificationDeleteInput{ID: id}); err != nil {
		return nil, err
	}

	return nil, nil
}

// PreferenceList returns the caller's notification preference matrix.
// @Summary List notification preferences
// @Description Lists per-category, per-channel opt-in state for the caller.
// @Tags Notification
// @Produce json
// @Success 200 {object} router.successResponse{data=PreferencesResponse} "Preferences"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/notifications/preferences [get]
func (h *HTTPEndpoint) PreferenceList(r *router.Request) (any, error) {
	prefs, err := h.uc.PreferenceList(r.Context())
	if err != nil {
		return nil, err
	}

	items := make([]PreferenceResponse, 0, len(prefs))
	for _, p := range prefs {
		items = append(items, PreferenceResponse{
			CategoryID: p.CategoryID,
			Channel:    p.Channel.String(),
			IsEnabled:  p.IsEnabled,
		})
	}

	return PreferencesResponse{Preferences: items}, nil
}

// PreferenceUpdate stores the caller's notification preferences.
// @Summary Update notification preferences
// @Description Updates per-category, per-channel opt-in state. Mandatory categories cannot be muted.
// @Tags Notification
// @Accept json
// @Produce json
// @Param request body PreferencesUpdateRequest true "Preferences payload"
// @Success 200 {object} router.successResponse "Updated"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "Category not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/notifications/preferences [put]
func (h *HTTPEndpoint) PreferenceUpdate(r *router.Request) (any, error) {
	var req PreferencesUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	prefs := make([]usecase.PreferenceInput, 0, len(req.Preferences))
	for _, p := range req.Preferences {
		prefs = append(prefs, usecase.PreferenceInput{
			CategoryID: p.CategoryID,
			Channel:    p.Channel,
			IsEnabled:  p.IsEnabled,
		})
	}

	if err := h.uc.PreferenceUpdate(r.Context(), usecase.PreferenceUpdateInput{Preferences: prefs}); err != nil {
		return nil, err
	}

	return nil, nil
}
