package rbac

import (
	"taskboard-service/internal/model"
)

// Roles within a tenant, ordered by capability
const (
	RoleMember  = "member"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

var roleRank = map[string]int{
	RoleMember:  1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// ValidRole reports whether role belongs to the closed role set
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// HasRole reports whether userRole grants at least the capabilities of
// required (admin ⊇ manager ⊇ member).
func HasRole(userRole, required string) bool {
	return roleRank[userRole] >= roleRank[required]
}

// Action is a permission-checked operation on a resource
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// CanProject reports whether the user may perform action on a project.
// isMember must reflect project membership (the owner counts as a member).
func CanProject(user *model.User, project *model.Project, isMember bool, action Action) bool {
	if user.Role == RoleAdmin {
		return true
	}
	if project.OwnerID == user.ID {
		return true
	}
	if !isMember {
		return false
	}
	if user.Role == RoleManager {
		return true
	}
	// Plain members can only view
	return action == ActionView
}

// CanTask reports whether the user may perform action on a task. Membership
// of the owning project is required for everything; beyond that managers can
// do anything and members can only edit or delete tasks assigned to them.
func CanTask(user *model.User, task *model.Task, project *model.Project, isMember bool, action Action) bool {
	if user.Role == RoleAdmin {
		return true
	}
	if !isMember && project.OwnerID != user.ID {
		return false
	}
	if user.Role == RoleManager {
		return true
	}
	if action == ActionView {
		return true
	}
	return task.AssigneeID != nil && *task.AssigneeID == user.ID
}
