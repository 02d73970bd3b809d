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

// GetList returns a list with its tasks
func GetList(c echo.Context) error {
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	list, project, err := projectForList(db, uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get list"})
	}
	if !rbac.CanProject(user, project, member, rbac.ActionView) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var tasks []model.Task
	if result := db.Where("list_id = ?", list.ID).Order("position").Find(&tasks); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get list"})
	}
	list.Tasks = tasks

	return c.JSON(http.StatusOK, list)
}

// UpdateList renames or repositions a list
func UpdateList(c echo.Context) error {
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list ID"})
	}

	list, project, err := projectForList(db, uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if !rbac.CanProject(user, project, member, rbac.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name     *string `json:"name"`
		Position *int    `json:"position"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Position != nil {
		fields["position"] = *req.Position
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if len(fields) > 0 {
		if result := db.Model(list).Updates(fields); result.Error != nil {
			log.Error("Failed to update list", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "List updated successfully",
		"list":    list,
	})
}

// DeleteList removes a list and its tasks
func DeleteList(c echo.Context) error {
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list ID"})
	}

	list, project, err := projectForList(db, uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if !rbac.CanProject(user, project, member, rbac.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	taskIDs := db.Model(&model.Task{}).Select("id").Where("list_id = ?", list.ID)
	if err := db.Where("task_id IN (?)", taskIDs).Delete(&model.Comment{}).Error; err != nil {
		log.Error("Failed to delete list comments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := db.Where("list_id = ?", list.ID).Delete(&model.Task{}).Error; err != nil {
		log.Error("Failed to delete list tasks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := db.Delete(list).Error; err != nil {
		log.Error("Failed to delete list", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "List deleted successfully"})
}

// CreateList creates a new list at the end of a project's board
func CreateList(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	var project model.Project
	if result := db.First(&project, projectID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	member, err := isProjectMember(db, &project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create list"})
	}
	if !rbac.CanProject(user, &project, member, rbac.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "list name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	position, err := nextPosition(db.Model(&model.List{}).Where("project_id = ?", project.ID))
	if err != nil {
		log.Error("Failed to compute list position", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create list"})
	}

	list := model.List{
		Name:      req.Name,
		ProjectID: project.ID,
		Position:  position,
	}

	if result := db.Create(&list); result.Error != nil {
		log.Error("Failed to create list", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create list"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "List created successfully",
		"list":    list,
	})
}

// GetProjectLists returns a project's lists with their tasks, ordered by
// position
func GetProjectLists(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	var project model.Project
	if result := db.First(&project, projectID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	member, err := isProjectMember(db, &project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list lists"})
	}
	if !rbac.CanProject(user, &project, member, rbac.ActionView) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var lists []model.List
	result := db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("tasks.position")
	}).Where("project_id = ?", project.ID).Order("position").Find(&lists)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list lists"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"lists": lists,
		"total": len(lists),
	})
}
