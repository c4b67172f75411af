package inbound

import (
	"time"

	"github.com/aruna-labs/identra/internal/pkg/valueobject"
)

type NotificationResponse struct {
	ID         int64               `json:"id,string"`
	CategoryID int64               `json:"category_id,string"`
	TriggerKey string              `json:"trigger_key"`
	Data       valueobject.JSONMap `json:"data" swaggertype:"object"`
	Metadata   valueobject.JSONMap `json:"metadata" swaggertype:"object"`
	ReadAt     *time.Time          `json:"read_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}

type PreferenceResponse struct {
	CategoryID int64  `json:"category_id,string"`
	Channel    string `json:"channel"`
	IsEnabled  bool   `json:"is_enabled"`
}

type PreferencesResponse struct {
	Preferences []PreferenceResponse `json:"preferences"`
}

type PreferenceRequest struct {
	CategoryID int64  `json:"category_id,string"`
	Channel    string `json:"channel"`
	IsEnabled  bool   `json:"is_enabled"`
}

type PreferencesUpdateRequest struct {
	Preferences []PreferenceRequest `json:"preferences"`
}
