package entity

type UserStatus int16

const (
	// UserStatusUnknown means the status is not known or not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified means the user exists but has not proven control
	// of their identifier yet.
	UserStatusUnverified UserStatus = 1

	// UserStatusActive means the user is verified and allowed in.
	UserStatusActive UserStatus = 2

	// UserStatusBanned means the user is blocked by policy.
	UserStatusBanned UserStatus = 3

	// UserStatusInactive means the account was deactivated or closed.
	UserStatusInactive UserStatus = 4
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusUnverified:
		return "Unverified"
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// Ensure collapses unrecognized values to UserStatusUnknown.
func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusUnverified, UserStatusActive, UserStatusBanned, UserStatusInactive:
		return us
	default:
		return UserStatusUnknown
	}
}

// ChallengePurpose tags short-lived challenge tokens.
type ChallengePurpose int16

const (
	ChallengePurposeUnknown ChallengePurpose = 0
	// ChallengePurposeLogin2FA bridges a password login to its second
	// factor.
	ChallengePurposeLogin2FA ChallengePurpose = 1
)
