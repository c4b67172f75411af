package entity

import (
	"time"

	"github.com/aruna-labs/identra/internal/pkg/valueobject"
)

// CreateFeedItem is a new entry for a user's in-app feed.
type CreateFeedItem struct {
	ID         int64
	UserID     int64
	CategoryID int64
	TriggerKey TriggerKey
	Data       valueobject.JSONMap
	Metadata   valueobject.JSONMap
}

// CreateDeliveryLog records one outbound email attempt tied to a feed item.
type CreateDeliveryLog struct {
	FeedItemID int64
	Channel    Channel
	Status     DeliveryStatus
}

type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
	NextRetryAt      *time.Time
}

// Template is the rendered copy for a trigger/channel pair. Bodies are
// html/template sources stored in the database.
type Template struct {
	ID         int64
	TriggerKey TriggerKey
	CategoryID int64
	Channel    Channel
	Subject    string
	Body       string
}

// Category groups notices for preference purposes. Mandatory categories
// (security notices) cannot be muted.
type Category struct {
	ID          int64
	Name        string
	Description string
	IsMandatory bool
}

// Preference is a user's per-category, per-channel opt-in state. Absence
// of a row means enabled.
type Preference struct {
	CategoryID int64
	Channel    Channel
	IsEnabled  bool
}

type FeedItem struct {
	ID         int64
	CategoryID int64
	TriggerKey TriggerKey
	Data       valueobject.JSONMap
	Metadata   valueobject.JSONMap
	ReadAt     *time.Time
	CreatedAt  time.Time
}
