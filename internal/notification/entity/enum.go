package entity

import "strings"

// Channel is where a notice can be delivered. In-app feeds every user;
// email only reaches users who registered with an email identifier.
type Channel int16

const (
	ChannelUnknown Channel = 0
	ChannelInApp   Channel = 1
	ChannelEmail   Channel = 2
)

func ChannelFromString(raw string) Channel {
	switch strings.TrimSpace(raw) {
	case "in_app":
		return ChannelInApp
	case "email":
		return ChannelEmail
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	switch c {
	case ChannelInApp:
		return "in_app"
	case ChannelEmail:
		return "email"
	default:
		return "unknown"
	}
}

type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusQueued  DeliveryStatus = 1
	DeliveryStatusSent    DeliveryStatus = 2
	DeliveryStatusFailed  DeliveryStatus = 3
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusQueued:
		return "queued"
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TriggerKey identifies which identity event produced the notice. It
// selects both the feed copy and the email template.
type TriggerKey string

const (
	TriggerKeyUserWelcome       TriggerKey = "user_welcome"
	TriggerKeyPasswordChanged   TriggerKey = "password_changed"
	TriggerKeyCredentialChanged TriggerKey = "credential_changed"
)

func (tk TriggerKey) String() string {
	return string(tk)
}

type FeedStatus string

const (
	FeedStatusAll    FeedStatus = "all"
	FeedStatusUnread FeedStatus = "unread"
	FeedStatusRead   FeedStatus = "read"
)
