package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role names carried in token claims.
const (
	RoleAdmin    = "admin"
	RoleDoctor   = "doctor"
	RoleNurse    = "nurse"
	RoleOperator = "operator"
)

// RequireRole allows the request through when the caller holds any of the
// given roles. Admins pass every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, r := range userRoles {
				if r == RoleAdmin {
					return next(c)
				}
				if _, ok := allowed[r]; ok {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
