package inbound

type SiteCreateRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type SiteResponse struct {
	ID      int64  `json:"id,string"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	OwnerID int64  `json:"owner_id,string"`
}

type MemberAddRequest struct {
	UserID int64  `json:"user_id,string"`
	Role   string `json:"role"`
}

type MemberAddResponse struct{}

func (MemberAddResponse) Message() string { return "Member added." }

type MemberResponse struct {
	UserID   int64  `json:"user_id,string"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
}

type MemberRoleUpdateRequest struct {
	Role string `json:"role"`
}

type MemberRoleUpdateResponse struct{}

func (MemberRoleUpdateResponse) Message() string { return "Member role updated." }

type MemberRemoveResponse struct{}

func (MemberRemoveResponse) Message() string { return "Member removed." }
