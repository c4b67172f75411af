// Package event declares the message contracts exchanged between modules
// over the messaging bus.
package event

// Destinations for identity lifecycle events. The notification module
// consumes each through its own consumer group.
const (
	UserRegisteredDestination    = "identity.user.registered"
	PasswordChangedDestination   = "identity.password.changed"
	CredentialChangedDestination = "identity.credential.changed"

	UserRegisteredNotificationConsumer    = "identity.user.registered.notification"
	PasswordChangedNotificationConsumer   = "identity.password.changed.notification"
	CredentialChangedNotificationConsumer = "identity.credential.changed.notification"
)

// UserRegisteredMessage is published after an account completes
// verification. Identifier is already masked-safe for display: it is the
// canonical email or phone the user registered with.
type UserRegisteredMessage struct {
	UserID     int64  `json:"user_id"`
	Identifier string `json:"identifier"`
	FullName   string `json:"full_name"`
}

// PasswordChangedMessage is published when a password is reset or changed.
type PasswordChangedMessage struct {
	UserID     int64  `json:"user_id"`
	Identifier string `json:"identifier"`
}

// CredentialChangedMessage is published when a login identifier is swapped.
type CredentialChangedMessage struct {
	UserID        int64  `json:"user_id"`
	OldIdentifier string `json:"old_identifier"`
	NewIdentifier string `json:"new_identifier"`
}
