package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskboard-service/internal/middleware"
	"taskboard-service/internal/model"
	"taskboard-service/internal/rbac"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"
)

// CreateProject creates a project with the caller as owner and first member
func CreateProject(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	if !rbac.HasRole(user.Role, rbac.RoleManager) {
		prometheus.RecordAuthError("insufficient_role")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only admins and managers can create projects"})
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "project name is required"})
	}

	color := req.Color
	if color == "" {
		color = "#4A90E2"
	}

	project := model.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
		Color:       color,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := db.Create(&project); result.Error != nil {
		log.Error("Failed to create project", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create project"})
	}

	member := model.ProjectMember{ProjectID: project.ID, UserID: user.ID}
	if result := db.Create(&member); result.Error != nil {
		log.Error("Failed to add owner as member", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create project"})
	}

	log.Info("Project created",
		zap.String("name", project.Name),
		zap.Uint("id", project.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Project created successfully",
		"project": project,
	})
}

// ListProjects returns the unarchived projects the caller owns or belongs to
func ListProjects(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var projects []model.Project
	result := db.
		Where("is_archived = ?", false).
		Where("owner_id = ? OR id IN (?)", user.ID,
			db.Model(&model.ProjectMember{}).Select("project_id").Where("user_id = ?", user.ID)).
		Order("id").
		Find(&projects)
	if result.Error != nil {
		logger.FromEcho(c).Error("Failed to list projects", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list projects"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"projects": projects,
		"total":    len(projects),
	})
}

// GetProject returns a project with its members, lists and tasks
func GetProject(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var project model.Project
	if result := db.First(&project, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	member, err := isProjectMember(db, &project, user.ID)
	if err != nil {
		log.Error("Membership check failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get project"})
	}
	if !rbac.CanProject(user, &project, member, rbac.ActionView) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	members, err := projectMembers(db, &project)
	if err != nil {
		log.Error("Failed to load members", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get project"})
	}

	var lists []model.List
	if result := db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("tasks.position")
	}).Where("project_id = ?", project.ID).Order("position").Find(&lists); result.Error != nil {
		log.Error("Failed to load lists", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get project"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"project": project,
		"members": members,
		"lists":   lists,
	})
}

// UpdateProject updates project fields; archiving is gated to managers
func UpdateProject(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	var project model.Project
	if result := db.First(&project, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	member, err := isProjectMember(db, &project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if !rbac.CanProject(user, &project, member, rbac.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Color       *string `json:"color"`
		IsArchived  *bool   `json:"is_archived"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Color != nil {
		fields["color"] = *req.Color
	}
	if req.IsArchived != nil && rbac.HasRole(user.Role, rbac.RoleManager) {
		fields["is_archived"] = *req.IsArchived
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if len(fields) > 0 {
		if result := db.Model(&project).Updates(fields); result.Error != nil {
			log.Error("Failed to update project", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Project updated successfully",
		"project": project,
	})
}

// DeleteProject removes a project and its lists, tasks and comments
func DeleteProject(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	var project model.Project
	if result := db.First(&project, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	member, err := isProjectMember(db, &project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if !rbac.CanProject(user, &project, member, rbac.ActionDelete) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := deleteProjectCascade(db, &project); err != nil {
		log.Error("Failed to delete project", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Project deleted successfully"})
}

// AddProjectMember adds a user to the project
func AddProjectMember(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	var project model.Project
	if result := db.First(&project, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	member, err := isProjectMember(db, &project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add member"})
	}
	if !rbac.CanProject(user, &project, member, rbac.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	var target model.User
	if result := db.First(&target, req.UserID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	already, err := isProjectMember(db, &project, target.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add member"})
	}
	if already {
		return c.JSON(http.StatusConflict, echo.Map{"error": "user is already a member"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := db.Create(&model.ProjectMember{ProjectID: project.ID, UserID: target.ID}); result.Error != nil {
		log.Error("Failed to add member", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add member"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Member added successfully"})
}

// RemoveProjectMember removes a user from the project; the owner cannot be
// removed
func RemoveProjectMember(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}
	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var project model.Project
	if result := db.First(&project, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	member, err := isProjectMember(db, &project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove member"})
	}
	if !rbac.CanProject(user, &project, member, rbac.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if uint(targetID) == project.OwnerID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot remove project owner"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := db.Where("project_id = ? AND user_id = ?", project.ID, targetID).Delete(&model.ProjectMember{})
	if result.Error != nil {
		log.Error("Failed to remove member", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove member"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user is not a member"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Member removed successfully"})
}
