package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskboard-service/internal/middleware"
	"taskboard-service/internal/model"
	"taskboard-service/internal/rbac"
	"taskboard-service/pkg/jwtutil"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"
)

// Login authenticates a user inside the request's tenant and issues a
// bearer token
func Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context missing"})
	}
	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if result := db.Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("Login failed: user not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !user.IsActive {
		prometheus.RecordAuthError("user_inactive")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !user.CheckPassword(req.Password) {
		log.Warn("Login failed: invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	now := time.Now().UTC()
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		log.Error("Failed to record last login", zap.Error(err))
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role, tenant.Subdomain)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}

// Register creates a member user inside the request's tenant
func Register(c echo.Context) error {
	log := logger.FromEcho(c)

	db, ok := middleware.TenantDB(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
	}

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password, first_name and last_name are required"})
	}

	user := model.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      rbac.RoleMember,
		IsActive:  true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := db.Create(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			prometheus.RecordAuthError("email_taken")
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already taken"})
		}
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}
