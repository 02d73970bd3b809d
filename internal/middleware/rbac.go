package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard-service/internal/rbac"
	"taskboard-service/prometheus"
)

// RequireRole returns middleware gating a route on a minimum tenant role.
// It must run after AuthMiddleware.
func RequireRole(minRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				prometheus.RecordAuthError("missing_user_context")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			if !rbac.HasRole(user.Role, minRole) {
				prometheus.RecordAuthError("insufficient_role")
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":         "insufficient permissions",
					"required_role": minRole,
					"your_role":     user.Role,
				})
			}

			return next(c)
		}
	}
}
