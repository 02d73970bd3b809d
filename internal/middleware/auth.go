package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskboard-service/internal/model"
	"taskboard-service/pkg/jwtutil"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"
)

// CurrentUserContextKey holds the authenticated tenant user
const CurrentUserContextKey = "current_user"

// AuthMiddleware validates the bearer token from the Authorization header
// and loads the authenticated user from the request's tenant schema. It must
// run after the tenant middleware.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		tenant, ok := TenantFromContext(c)
		if !ok {
			log.Error("Auth middleware reached without tenant context")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context missing"})
		}

		// User ids are per-schema; a token minted for one tenant must never
		// authenticate inside another.
		if claims.TenantSubdomain != tenant.Subdomain {
			log.Warn("Token tenant mismatch",
				zap.String("token_tenant", claims.TenantSubdomain),
				zap.String("request_tenant", tenant.Subdomain))
			prometheus.RecordAuthError("tenant_mismatch")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token not valid for this tenant"})
		}

		db, ok := TenantDB(c)
		if !ok {
			log.Error("Auth middleware reached without tenant session")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant session missing"})
		}

		var user model.User
		if result := db.First(&user, claims.UserID); result.Error != nil {
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found or inactive"})
		}
		if !user.IsActive {
			prometheus.RecordAuthError("user_inactive")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found or inactive"})
		}

		c.Set(CurrentUserContextKey, &user)
		c.Set("user_id", user.ID)
		c.Set("email", user.Email)

		return next(c)
	}
}

// CurrentUser returns the authenticated user for this request
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(CurrentUserContextKey).(*model.User)
	return user, ok
}
