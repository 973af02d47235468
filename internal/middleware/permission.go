package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/authz"
)

// RequirePermission must run after RequireAuth.
func RequirePermission(a *authz.Authorizer, object, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if err := a.Authorize(role, object, action); err != nil {
				return errorJSON(c, http.StatusForbidden, "forbidden", "not allowed")
			}
			return next(c)
		}
	}
}
