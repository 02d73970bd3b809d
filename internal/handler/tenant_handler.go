package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskboard-service/internal/model"
	"taskboard-service/internal/rbac"
	"taskboard-service/internal/tenancy"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"
)

// TenantHandler serves the tenant registry management endpoints. These are
// tenant-independent: they operate on the shared schema and on physical
// tenant schemas, never inside a request-scoped tenant session.
type TenantHandler struct {
	db          *gorm.DB
	registry    *tenancy.Registry
	provisioner *tenancy.Provisioner
}

// NewTenantHandler creates the tenant management handler
func NewTenantHandler(db *gorm.DB, registry *tenancy.Registry, provisioner *tenancy.Provisioner) *TenantHandler {
	return &TenantHandler{db: db, registry: registry, provisioner: provisioner}
}

// Create provisions a new tenant: registry row, physical schema, bootstrap
// admin user. If any step after the registry commit fails, cleanup is
// best-effort: a cleanup failure leaves an inconsistent registry/schema pair
// and is surfaced in logs, not hidden.
func (h *TenantHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("create")

	var req struct {
		Name           string `json:"name"`
		Subdomain      string `json:"subdomain"`
		AdminEmail     string `json:"admin_email"`
		AdminPassword  string `json:"admin_password"`
		AdminFirstName string `json:"admin_first_name"`
		AdminLastName  string `json:"admin_last_name"`
		MaxUsers       int    `json:"max_users"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	required := map[string]string{
		"name":             req.Name,
		"subdomain":        req.Subdomain,
		"admin_email":      req.AdminEmail,
		"admin_password":   req.AdminPassword,
		"admin_first_name": req.AdminFirstName,
		"admin_last_name":  req.AdminLastName,
	}
	for field, value := range required {
		if value == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": field + " is required"})
		}
	}

	if err := tenancy.ValidateSubdomain(req.Subdomain); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subdomain"})
	}

	schemaName := tenancy.SchemaName(req.Subdomain)
	maxUsers := req.MaxUsers
	if maxUsers == 0 {
		maxUsers = 10
	}

	tenant := &model.Tenant{
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		SchemaName:   schemaName,
		Active:       true,
		ContactEmail: req.AdminEmail,
		MaxUsers:     maxUsers,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := h.registry.Create(tenant); err != nil {
		if errors.Is(err, tenancy.ErrSubdomainTaken) {
			prometheus.RecordTenantError("subdomain_taken")
			return c.JSON(http.StatusConflict, echo.Map{"error": "subdomain already taken"})
		}
		if errors.Is(err, tenancy.ErrInvalidSchemaName) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subdomain"})
		}
		log.Error("Failed to create tenant registry row", zap.Error(err))
		prometheus.RecordTenantError("registry_create_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	if err := h.provisioner.Provision(schemaName); err != nil {
		log.Error("Failed to provision tenant schema",
			zap.String("schema", schemaName),
			zap.Error(err))
		prometheus.RecordTenantError("provision_failed")
		h.cleanup(log, tenant)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	if err := h.bootstrapAdmin(schemaName, req.AdminEmail, req.AdminPassword, req.AdminFirstName, req.AdminLastName); err != nil {
		log.Error("Failed to create tenant admin user",
			zap.String("schema", schemaName),
			zap.Error(err))
		prometheus.RecordTenantError("bootstrap_failed")
		h.cleanup(log, tenant)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	h.refreshActiveTenantsGauge()

	log.Info("Tenant created",
		zap.String("name", tenant.Name),
		zap.String("subdomain", tenant.Subdomain),
		zap.String("schema", tenant.SchemaName))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// bootstrapAdmin creates the initial admin user inside a freshly provisioned
// schema, through a schema-bound session like any tenant-scoped write.
func (h *TenantHandler) bootstrapAdmin(schemaName, email, password, firstName, lastName string) error {
	admin := model.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      rbac.RoleAdmin,
		IsActive:  true,
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}

	session, err := tenancy.OpenSession(h.db, schemaName)
	if err != nil {
		return err
	}

	err = session.DB().Create(&admin).Error
	if releaseErr := session.Release(err); releaseErr != nil {
		return releaseErr
	}
	return err
}

// cleanup compensates a partially created tenant: drop the schema, delete
// the registry row. Failures are logged and swallowed; the caller has
// already failed the request.
func (h *TenantHandler) cleanup(log *zap.Logger, tenant *model.Tenant) {
	if err := h.provisioner.Deprovision(tenant.SchemaName); err != nil {
		log.Error("Cleanup failed: tenant schema left behind",
			zap.String("schema", tenant.SchemaName),
			zap.Error(err))
		prometheus.RecordTenantError("cleanup_failed")
	}
	if err := h.registry.Delete(tenant.ID); err != nil && !errors.Is(err, tenancy.ErrTenantNotFound) {
		log.Error("Cleanup failed: tenant registry row left behind",
			zap.Uint("tenant_id", tenant.ID),
			zap.Error(err))
		prometheus.RecordTenantError("cleanup_failed")
	}
}

// List returns all tenants
func (h *TenantHandler) List(c echo.Context) error {
	prometheus.RecordTenantOperation("list")
	defer prometheus.TrackDBOperation("query")(time.Now())

	tenants, err := h.registry.List()
	if err != nil {
		logger.FromEcho(c).Error("Failed to list tenants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tenants"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenants": tenants,
		"total":   len(tenants),
	})
}

// Get returns one tenant with usage statistics
func (h *TenantHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	tenant, err := h.registry.Get(uint(id))
	if err != nil {
		if errors.Is(err, tenancy.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to get tenant", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get tenant"})
	}

	var stats *tenancy.TenantStats
	if stats, err = h.provisioner.Stats(tenant.SchemaName); err != nil {
		log.Error("Failed to collect tenant stats",
			zap.String("schema", tenant.SchemaName),
			zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenant": tenant,
		"stats":  stats,
	})
}

// Update applies the mutable tenant fields
func (h *TenantHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req struct {
		Name         *string `json:"name"`
		IsActive     *bool   `json:"is_active"`
		ContactEmail *string `json:"contact_email"`
		MaxUsers     *int    `json:"max_users"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	tenant, err := h.registry.Update(uint(id), tenancy.TenantUpdate{
		Name:         req.Name,
		Active:       req.IsActive,
		ContactEmail: req.ContactEmail,
		MaxUsers:     req.MaxUsers,
	})
	if err != nil {
		if errors.Is(err, tenancy.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		if errors.Is(err, tenancy.ErrSubdomainTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "tenant name already taken"})
		}
		log.Error("Failed to update tenant", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.refreshActiveTenantsGauge()

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant updated successfully",
		"tenant":  tenant,
	})
}

// Delete tears a tenant down: schema first, then the registry row. If the
// drop fails the registry row is kept, so no registry entry ever points at
// partially deleted data without a trace.
func (h *TenantHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	tenant, err := h.registry.Get(uint(id))
	if err != nil {
		if errors.Is(err, tenancy.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get tenant"})
	}

	defer prometheus.TrackDBOperation("ddl")(time.Now())

	if err := h.provisioner.Deprovision(tenant.SchemaName); err != nil {
		log.Error("Failed to deprovision tenant schema",
			zap.String("schema", tenant.SchemaName),
			zap.Error(err))
		prometheus.RecordTenantError("deprovision_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	if err := h.registry.Delete(tenant.ID); err != nil {
		log.Error("Schema dropped but registry delete failed",
			zap.Uint("tenant_id", tenant.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	h.refreshActiveTenantsGauge()

	log.Info("Tenant deleted",
		zap.String("subdomain", tenant.Subdomain),
		zap.String("schema", tenant.SchemaName))

	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant deleted successfully"})
}

func (h *TenantHandler) refreshActiveTenantsGauge() {
	if n, err := h.registry.Count(); err == nil {
		prometheus.ActiveTenantsGauge.Set(float64(n))
	}
}
