package main

import (
	"taskboard-service/internal/handler"
	"taskboard-service/internal/middleware"
	"taskboard-service/internal/model"
	"taskboard-service/internal/rbac"
	"taskboard-service/internal/tenancy"
	"taskboard-service/pkg/config"
	"taskboard-service/pkg/database"
	"taskboard-service/pkg/jwtutil"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("taskboard-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting taskboard service...", cfg.LogConfig()...)

	// Initialize database against the shared/public schema
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// The tenant registry is the only shared-schema table; tenant tables are
	// migrated per schema at provision time
	if err := database.MigrateModels(&model.Tenant{}); err != nil {
		log.Fatal("Failed to migrate registry tables", zap.Error(err))
	}
	log.Info("Registry migrations complete")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Tenancy components
	registry := tenancy.NewRegistry(db)
	provisioner := tenancy.NewProvisioner(db)
	tenantHandler := handler.NewTenantHandler(db, registry, provisioner)
	tenantMiddleware := middleware.NewTenantMiddleware(registry, func(schemaName string) (middleware.TenantSession, error) {
		return tenancy.OpenSession(db, schemaName)
	})

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())
	e.Use(tenantMiddleware.Handler)

	// Public routes - no tenant context, no authentication
	e.GET("/", handler.Index)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Tenant management - operates on the shared registry, never inside a
	// tenant session
	tenants := e.Group("/api/tenants")
	tenants.POST("", tenantHandler.Create)
	tenants.GET("", tenantHandler.List)
	tenants.GET("/:id", tenantHandler.Get)
	tenants.PATCH("/:id", tenantHandler.Update)
	tenants.DELETE("/:id", tenantHandler.Delete)

	// Authentication routes - tenant-scoped but unauthenticated
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)

	// API routes - all require a tenant context and authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// User management
	users := api.Group("/users")
	users.GET("", handler.ListUsers, middleware.RequireRole(rbac.RoleManager))
	users.GET("/:id", handler.GetUser)
	users.PATCH("/:id", handler.UpdateUser)
	users.PATCH("/:id/role", handler.UpdateUserRole, middleware.RequireRole(rbac.RoleAdmin))
	users.DELETE("/:id", handler.DeleteUser, middleware.RequireRole(rbac.RoleAdmin))

	// Projects
	projects := api.Group("/projects")
	projects.POST("", handler.CreateProject)
	projects.GET("", handler.ListProjects)
	projects.GET("/:id", handler.GetProject)
	projects.PATCH("/:id", handler.UpdateProject)
	projects.DELETE("/:id", handler.DeleteProject)
	projects.POST("/:id/members", handler.AddProjectMember)
	projects.DELETE("/:id/members/:user_id", handler.RemoveProjectMember)
	projects.POST("/:id/lists", handler.CreateList)
	projects.GET("/:id/lists", handler.GetProjectLists)

	// Lists
	lists := api.Group("/lists")
	lists.GET("/:id", handler.GetList)
	lists.PATCH("/:id", handler.UpdateList)
	lists.DELETE("/:id", handler.DeleteList)
	lists.POST("/:id/tasks", handler.CreateTask)
	lists.GET("/:id/tasks", handler.GetListTasks)

	// Tasks
	tasks := api.Group("/tasks")
	tasks.GET("/:id", handler.GetTask)
	tasks.PATCH("/:id", handler.UpdateTask)
	tasks.DELETE("/:id", handler.DeleteTask)
	tasks.POST("/:id/move", handler.MoveTask)
	tasks.POST("/:id/comments", handler.AddComment)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
