package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskboard-service/internal/model"
)

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole(RoleAdmin, RoleMember))
	assert.True(t, HasRole(RoleAdmin, RoleAdmin))
	assert.True(t, HasRole(RoleManager, RoleMember))
	assert.False(t, HasRole(RoleMember, RoleManager))
	assert.False(t, HasRole(RoleMember, RoleAdmin))
	assert.False(t, HasRole("unknown", RoleMember))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleMember))
	assert.True(t, ValidRole(RoleManager))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("owner"))
	assert.False(t, ValidRole(""))
}

func TestCanProject(t *testing.T) {
	owner := &model.User{ID: 1, Role: RoleMember}
	admin := &model.User{ID: 2, Role: RoleAdmin}
	manager := &model.User{ID: 3, Role: RoleManager}
	member := &model.User{ID: 4, Role: RoleMember}
	outsider := &model.User{ID: 5, Role: RoleManager}

	project := &model.Project{ID: 10, OwnerID: owner.ID}

	// Admin can do everything, member or not
	for _, a := range []Action{ActionView, ActionEdit, ActionDelete} {
		assert.True(t, CanProject(admin, project, false, a), "admin %s", a)
	}

	// Owner can do everything
	for _, a := range []Action{ActionView, ActionEdit, ActionDelete} {
		assert.True(t, CanProject(owner, project, true, a), "owner %s", a)
	}

	// Non-members get nothing, whatever their role
	for _, a := range []Action{ActionView, ActionEdit, ActionDelete} {
		assert.False(t, CanProject(outsider, project, false, a), "outsider %s", a)
	}

	// Managers who are members can do everything
	for _, a := range []Action{ActionView, ActionEdit, ActionDelete} {
		assert.True(t, CanProject(manager, project, true, a), "manager %s", a)
	}

	// Plain members can only view
	assert.True(t, CanProject(member, project, true, ActionView))
	assert.False(t, CanProject(member, project, true, ActionEdit))
	assert.False(t, CanProject(member, project, true, ActionDelete))
}

func TestCanTask(t *testing.T) {
	admin := &model.User{ID: 1, Role: RoleAdmin}
	manager := &model.User{ID: 2, Role: RoleManager}
	assignee := &model.User{ID: 3, Role: RoleMember}
	member := &model.User{ID: 4, Role: RoleMember}
	outsider := &model.User{ID: 5, Role: RoleMember}

	project := &model.Project{ID: 10, OwnerID: 99}
	task := &model.Task{ID: 20, AssigneeID: &assignee.ID}

	// Admin bypasses membership entirely
	assert.True(t, CanTask(admin, task, project, false, ActionDelete))

	// Membership is required for everyone else
	assert.False(t, CanTask(outsider, task, project, false, ActionView))

	// Managers who are members can do everything
	for _, a := range []Action{ActionView, ActionEdit, ActionDelete} {
		assert.True(t, CanTask(manager, task, project, true, a), "manager %s", a)
	}

	// Any member can view
	assert.True(t, CanTask(member, task, project, true, ActionView))

	// Members can only edit/delete their own assigned tasks
	assert.True(t, CanTask(assignee, task, project, true, ActionEdit))
	assert.True(t, CanTask(assignee, task, project, true, ActionDelete))
	assert.False(t, CanTask(member, task, project, true, ActionEdit))
	assert.False(t, CanTask(member, task, project, true, ActionDelete))

	// Unassigned tasks are view-only for members
	unassigned := &model.Task{ID: 21}
	assert.True(t, CanTask(member, unassigned, project, true, ActionView))
	assert.False(t, CanTask(member, unassigned, project, true, ActionEdit))

	// The project owner counts even without a membership row
	ownerUser := &model.User{ID: 99, Role: RoleMember}
	assert.True(t, CanTask(ownerUser, task, project, false, ActionView))
}
