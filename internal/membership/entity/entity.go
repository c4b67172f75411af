package entity

import "time"

// Role is a member's role within a site. Roles are enforced through the
// policy engine; these values double as casbin grouping subjects.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// RoleFromString returns the matching role or "" for unknown input.
func RoleFromString(s string) Role {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return Role(s)
	default:
		return ""
	}
}

func (r Role) String() string { return string(r) }

type MemberStatus int16

const (
	MemberStatusUnknown MemberStatus = 0
	MemberStatusActive  MemberStatus = 1
	MemberStatusRemoved MemberStatus = 2
)

func (ms MemberStatus) String() string {
	switch ms {
	case MemberStatusActive:
		return "Active"
	case MemberStatusRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Site is a tenant.
type Site struct {
	ID        int64
	Slug      string
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

type Membership struct {
	SiteID    int64
	UserID    int64
	Role      Role
	Status    MemberStatus
	CreatedAt time.Time
}

// Member joins a membership with the user's display fields.
type Member struct {
	UserID   int64
	FullName string
	Role     Role
	Status   MemberStatus
	JoinedAt time.Time
}
