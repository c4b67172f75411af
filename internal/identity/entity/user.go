package entity

import "time"

// User is an account. Email and Phone are canonical identifiers; either may
// be empty but never both.
type User struct {
	ID        int64
	Email     string
	Phone     string
	FullName  string
	AvatarURL string
	Status    UserStatus
	UpdatedAt time.Time
}

// PrimaryIdentifier returns the identifier used for tokens and events,
// preferring email.
func (u User) PrimaryIdentifier() string {
	if u.Email != "" {
		return u.Email
	}
	return u.Phone
}

// NewUser is the payload for creating an account.
type NewUser struct {
	ID        int64
	Email     string
	Phone     string
	FullName  string
	AvatarURL string
	Status    UserStatus
}

// UserLoginInfo is the slice of a user needed to decide a password login.
type UserLoginInfo struct {
	ID          int64
	Email       string
	Phone       string
	FullName    string
	Status      UserStatus
	Password    string // hashed
	TOTPEnabled bool
}

// CredentialChange is a pending identifier swap awaiting code verification
// against the new identifier.
type CredentialChange struct {
	ID            int64
	UserID        int64
	NewIdentifier string
	// IsEmail selects which user column the swap targets.
	IsEmail   bool
	CreatedAt time.Time
}
