package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskboard-service/internal/middleware"
	"taskboard-service/internal/model"
	"taskboard-service/internal/rbac"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"
)

// GetTask returns a task with its comments
func GetTask(c echo.Context) error {
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	task, project, err := projectForTask(db, uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get task"})
	}
	if !rbac.CanTask(user, task, project, member, rbac.ActionView) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var comments []model.Comment
	if result := db.Where("task_id = ?", task.ID).Order("created_at").Find(&comments); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get task"})
	}
	task.Comments = comments

	return c.JSON(http.StatusOK, task)
}

// UpdateTask updates task fields, including the completed flag which stamps
// or clears completed_at
func UpdateTask(c echo.Context) error {
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	task, project, err := projectForTask(db, uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if !rbac.CanTask(user, task, project, member, rbac.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		AssigneeID  *uint      `json:"assignee_id"`
		Priority    *string    `json:"priority"`
		Labels      *[]string  `json:"labels"`
		DueDate     *time.Time `json:"due_date"`
		Completed   *bool      `json:"completed"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.AssigneeID != nil {
		task.AssigneeID = req.AssigneeID
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Labels != nil {
		task.Labels = *req.Labels
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
		if task.Completed {
			now := time.Now().UTC()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := db.Save(task); result.Error != nil {
		log.Error("Failed to update task", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Task updated successfully",
		"task":    task,
	})
}

// DeleteTask removes a task and its comments
func DeleteTask(c echo.Context) error {
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	task, project, err := projectForTask(db, uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if !rbac.CanTask(user, task, project, member, rbac.ActionDelete) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := db.Where("task_id = ?", task.ID).Delete(&model.Comment{}).Error; err != nil {
		log.Error("Failed to delete task comments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := db.Delete(task).Error; err != nil {
		log.Error("Failed to delete task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Task deleted successfully"})
}

// MoveTask moves a task to a different list and position
func MoveTask(c echo.Context) error {
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	task, project, err := projectForTask(db, uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "move failed"})
	}
	if !rbac.CanTask(user, task, project, member, rbac.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		ListID   uint `json:"list_id"`
		Position int  `json:"position"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ListID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "list_id is required"})
	}

	var target model.List
	if result := db.First(&target, req.ListID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	task.ListID = req.ListID
	task.Position = req.Position
	if result := db.Save(task); result.Error != nil {
		log.Error("Failed to move task", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "move failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Task moved successfully",
		"task":    task,
	})
}

// CreateTask creates a task at the end of a list
func CreateTask(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	listID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list ID"})
	}

	list, project, err := projectForList(db, uint(listID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}
	if !rbac.CanProject(user, project, member, rbac.ActionView) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		AssigneeID  *uint      `json:"assignee_id"`
		Priority    string     `json:"priority"`
		Labels      []string   `json:"labels"`
		DueDate     *time.Time `json:"due_date"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "task title is required"})
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	position, err := nextPosition(db.Model(&model.Task{}).Where("list_id = ?", list.ID))
	if err != nil {
		log.Error("Failed to compute task position", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}

	task := model.Task{
		Title:       req.Title,
		Description: req.Description,
		ListID:      list.ID,
		AssigneeID:  req.AssigneeID,
		Priority:    priority,
		Labels:      req.Labels,
		DueDate:     req.DueDate,
		Position:    position,
	}

	if result := db.Create(&task); result.Error != nil {
		log.Error("Failed to create task", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Task created successfully",
		"task":    task,
	})
}

// GetListTasks returns a list's tasks ordered by position
func GetListTasks(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	listID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list ID"})
	}

	list, project, err := projectForList(db, uint(listID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tasks"})
	}
	if !rbac.CanProject(user, project, member, rbac.ActionView) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var tasks []model.Task
	if result := db.Where("list_id = ?", list.ID).Order("position").Find(&tasks); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tasks"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// AddComment attaches a comment to a task
func AddComment(c echo.Context) error {
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	task, project, err := projectForTask(db, uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	member, err := isProjectMember(db, project, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add comment"})
	}
	if !rbac.CanTask(user, task, project, member, rbac.ActionView) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "comment content is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	comment := model.Comment{
		Content: req.Content,
		TaskID:  task.ID,
		UserID:  user.ID,
	}

	if result := db.Create(&comment); result.Error != nil {
		log.Error("Failed to add comment", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add comment"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Comment added successfully",
		"comment": comment,
	})
}
