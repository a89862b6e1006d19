package members

import "github.com/dvloznov/ledgerdesk/internal/domain"

// Actor is the member performing an operation.
type Actor struct {
	MemberID    string
	Role        domain.Role
	Permissions domain.Permissions
}

// CanManage reports whether the actor may invite, edit or remove members.
func (a Actor) CanManage() bool {
	switch a.Role {
	case domain.RoleOwner, domain.RoleAdmin:
		return true
	default:
		return a.Permissions.ManageMembers
	}
}

// AssignableRoles lists the roles the actor may grant, most privileged first.
// Owner is never assignable; only an owner may grant admin.
func AssignableRoles(a Actor) []domain.Role {
	if !a.CanManage() {
		return nil
	}
	if a.Role == domain.RoleOwner {
		return []domain.Role{domain.RoleAdmin, domain.RoleAccountant, domain.RoleViewer}
	}
	return []domain.Role{domain.RoleAccountant, domain.RoleViewer}
}

// CanAssign reports whether role is among AssignableRoles(a).
func CanAssign(a Actor, role domain.Role) bool {
	for _, r := range AssignableRoles(a) {
		if r == role {
			return true
		}
	}
	return false
}

// DefaultPermissions is the permission set a role starts with.
func DefaultPermissions(role domain.Role) domain.Permissions {
	switch role {
	case domain.RoleOwner, domain.RoleAdmin:
		return domain.Permissions{
			ViewStatements:   true,
			UploadStatements: true,
			ManageAccounts:   true,
			ManageBills:      true,
			ViewReports:      true,
			ManageMembers:    true,
		}
	case domain.RoleAccountant:
		return domain.Permissions{
			ViewStatements:   true,
			UploadStatements: true,
			ManageAccounts:   true,
			ManageBills:      true,
			ViewReports:      true,
		}
	case domain.RoleViewer:
		return domain.Permissions{
			ViewStatements: true,
			ViewReports:    true,
		}
	}
	return domain.Permissions{}
}
