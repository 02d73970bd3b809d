package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskboard-service/internal/model"
	"taskboard-service/internal/tenancy"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"
)

// Context keys for the resolved tenant and its schema-bound database handle
const (
	TenantContextKey   = "tenant"
	TenantDBContextKey = "tenant_db"
)

// Tenant-independent routes that must never trigger resolution
var (
	tenantSkipExact    = []string{"/", "/health", "/metrics"}
	tenantSkipPrefixes = []string{"/api/tenants"}
)

// Directory looks up active tenants by subdomain
type Directory interface {
	LookupActive(subdomain string) (*model.Tenant, error)
}

// TenantSession is a request-scoped, schema-bound database session
type TenantSession interface {
	DB() *gorm.DB
	Release(handlerErr error) error
}

// OpenSessionFunc binds a new session to a tenant schema
type OpenSessionFunc func(schemaName string) (TenantSession, error)

// TenantMiddleware wires tenant resolution and schema switching into the
// request lifecycle: resolve → lookup → activate → handler → release. The
// session is a scoped resource: release runs on every exit path, including
// handler errors and panics.
type TenantMiddleware struct {
	directory Directory
	open      OpenSessionFunc
}

// NewTenantMiddleware creates the request lifecycle hook
func NewTenantMiddleware(directory Directory, open OpenSessionFunc) *TenantMiddleware {
	return &TenantMiddleware{directory: directory, open: open}
}

// Handler returns the Echo middleware function
func (m *TenantMiddleware) Handler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if shouldSkipTenantDetection(c.Request().URL.Path) {
			return next(c)
		}

		log := logger.FromEcho(c)

		subdomain, ok := tenancy.ResolveSubdomain(c.Request().Host, c.Request().Header.Get(tenancy.SubdomainHeader))
		if !ok {
			prometheus.RecordTenantError("unresolved")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant subdomain is required"})
		}

		tenant, err := m.directory.LookupActive(subdomain)
		if err != nil {
			if errors.Is(err, tenancy.ErrTenantNotFound) {
				prometheus.RecordTenantError("not_found")
				return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found: " + subdomain})
			}
			log.Error("Tenant lookup failed", zap.String("subdomain", subdomain), zap.Error(err))
			prometheus.RecordTenantError("lookup_failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant lookup failed"})
		}

		// A request must never silently proceed against the default schema:
		// that would read another tenant's data.
		session, err := m.open(tenant.SchemaName)
		if err != nil {
			log.Error("Failed to activate tenant schema",
				zap.String("subdomain", tenant.Subdomain),
				zap.String("schema", tenant.SchemaName),
				zap.Error(err))
			if errors.Is(err, tenancy.ErrSchemaMissing) {
				prometheus.RecordTenantError("schema_missing")
			} else {
				prometheus.RecordTenantError("activation_failed")
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to activate tenant schema"})
		}

		c.Set(TenantContextKey, tenant)
		c.Set(TenantDBContextKey, session.DB())
		c.Set("logger", log.With(zap.String("tenant", tenant.Subdomain)))

		var handlerErr error
		defer func() {
			if r := recover(); r != nil {
				_ = session.Release(fmt.Errorf("panic: %v", r))
				panic(r)
			}
			if err := session.Release(handlerErr); err != nil {
				log.Error("Failed to release tenant session",
					zap.String("schema", tenant.SchemaName),
					zap.Error(err))
			}
		}()

		handlerErr = next(c)
		return handlerErr
	}
}

func shouldSkipTenantDetection(path string) bool {
	for _, p := range tenantSkipExact {
		if path == p {
			return true
		}
	}
	for _, p := range tenantSkipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// TenantFromContext returns the tenant resolved for this request
func TenantFromContext(c echo.Context) (*model.Tenant, bool) {
	tenant, ok := c.Get(TenantContextKey).(*model.Tenant)
	return tenant, ok
}

// TenantDB returns the schema-bound database handle for this request
func TenantDB(c echo.Context) (*gorm.DB, bool) {
	db, ok := c.Get(TenantDBContextKey).(*gorm.DB)
	return db, ok
}
