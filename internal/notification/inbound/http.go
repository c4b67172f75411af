package inbound

import (
	"github.com/aruna-labs/identra/internal/pkg/router"
)

// RegisterHTTPEndpoint mounts the notification feed and preference routes.
// All of them need an authenticated caller.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Feed
	r.GET("/api/v1/notifications", end.NotificationList)
	r.PATCH("/api/v1/notifications/:id/read", end.NotificationMarkRead)
	r.PUT("/api/v1/notifications/read-all", end.NotificationMarkAllRead)
	r.DELETE("/api/v1/notifications/:id", end.NotificationDelete)

	// Preferences
	r.GET("/api/v1/notifications/preferences", end.PreferenceList)
	r.PUT("/api/v1/notifications/preferences", end.PreferenceUpdate)
}
