package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role is a company member's role.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleViewer     Role = "viewer"
)

// ParseRole rejects unknown roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleAdmin, RoleAccountant, RoleViewer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// UnmarshalJSON rejects unknown roles.
func (r *Role) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Permissions are independent capability flags.
type Permissions struct {
	ViewStatements   bool `json:"viewStatements"`
	UploadStatements bool `json:"uploadStatements"`
	ManageAccounts   bool `json:"manageAccounts"`
	ManageBills      bool `json:"manageBills"`
	ViewReports      bool `json:"viewReports"`
	ManageMembers    bool `json:"manageMembers"`
}

// MemberStatus distinguishes joined members from outstanding invitations.
type MemberStatus string

const (
	MemberActive  MemberStatus = "active"
	MemberInvited MemberStatus = "invited"
)

// Member is a user with a role in one company.
type Member struct {
	ID          string       `json:"id"`
	CompanyID   string       `json:"companyId"`
	UserID      string       `json:"userId,omitempty"`
	Email       string       `json:"email"`
	Name        string       `json:"name,omitempty"`
	Role        Role         `json:"role"`
	Permissions Permissions  `json:"permissions"`
	Status      MemberStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Invitation is an outstanding offer to join a company.
type Invitation struct {
	ID          string      `json:"id"`
	CompanyID   string      `json:"companyId"`
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	Token       string      `json:"token,omitempty"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	CreatedAt   time.Time   `json:"createdAt"`
}
