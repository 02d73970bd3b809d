package handler

import (
	"errors"
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

// ListUsers returns the active users of the tenant
func ListUsers(c echo.Context) error {
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var users []model.User
	if result := db.Where("is_active = ?", true).Order("id").Find(&users); result.Error != nil {
		logger.FromEcho(c).Error("Failed to list users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list users"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users": users,
		"total": len(users),
	})
}

// GetUser returns one user of the tenant
func GetUser(c echo.Context) error {
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if result := db.First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateUser updates a user's profile. Users can only update themselves
// unless they are admins; email changes are admin-only.
func UpdateUser(c echo.Context) error {
	log := logger.FromEcho(c)

	currentUser, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	if currentUser.ID != uint(id) && currentUser.Role != rbac.RoleAdmin {
		prometheus.RecordAuthError("insufficient_role")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	var user model.User
	if result := db.First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]interface{}{}
	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
	}
	if req.Email != nil && currentUser.Role == rbac.RoleAdmin {
		fields["email"] = *req.Email
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if len(fields) > 0 {
		if result := db.Model(&user).Updates(fields); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "email already taken"})
			}
			log.Error("Failed to update user", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// UpdateUserRole changes a user's role; gated to admins at the route
func UpdateUserRole(c echo.Context) error {
	log := logger.FromEcho(c)

	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var user model.User
	if result := db.First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if !rbac.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := db.Model(&user).Update("role", req.Role); result.Error != nil {
		log.Error("Failed to update user role", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.Info("User role updated",
		zap.Uint("user_id", user.ID),
		zap.String("role", req.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "User role updated successfully",
		"user":    user,
	})
}

// DeleteUser deactivates a user (soft delete); gated to admins at the route
func DeleteUser(c echo.Context) error {
	log := logger.FromEcho(c)

	currentUser, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	if currentUser.ID == uint(id) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete yourself"})
	}

	var user model.User
	if result := db.First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := db.Model(&user).Update("is_active", false); result.Error != nil {
		log.Error("Failed to deactivate user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
