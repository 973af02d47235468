package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/authz"
	"github.com/shinyyama/goods-backend/internal/reqctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whoami(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, map[string]string{
		"uid":       reqctx.UID(ctx),
		"role":      reqctx.Role(ctx),
		"requestId": reqctx.RequestID(ctx),
	})
}

func TestHeaderAuth(t *testing.T) {
	e := echo.New()
	auth := NewHeaderAuth()
	e.Use(RequestID())
	e.GET("/private", whoami, auth.RequireAuth)
	e.GET("/public", whoami, auth.OptionalAuth)

	tests := []struct {
		name    string
		path    string
		uid     string
		role    string
		status  int
		wantUID string
		role2   string
	}{
		{"missing uid", "/private", "", "", http.StatusUnauthorized, "", ""},
		{"default role", "/private", "u1", "", http.StatusOK, "u1", "user"},
		{"explicit role", "/private", "u2", "Admin", http.StatusOK, "u2", "admin"},
		{"anonymous public", "/public", "", "", http.StatusOK, "", ""},
		{"identified public", "/public", "u3", "", http.StatusOK, "u3", "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.uid != "" {
				req.Header.Set(HeaderUserID, tt.uid)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
				return
			}
			assert.Contains(t, rec.Body.String(), `"uid":"`+tt.wantUID+`"`)
			assert.Contains(t, rec.Body.String(), `"role":"`+tt.role2+`"`)
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
			assert.Contains(t, rec.Body.String(), rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}

func TestRequirePermission(t *testing.T) {
	a, err := authz.New()
	require.NoError(t, err)
	e := echo.New()
	auth := NewHeaderAuth()
	e.POST("/admin/points/expire", whoami, auth.RequireAuth, RequirePermission(a, authz.ObjectPoints, authz.ActionPointsExpire))

	for role, want := range map[string]int{"admin": http.StatusOK, "support": http.StatusForbidden, "user": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/admin/points/expire", nil)
		req.Header.Set(HeaderUserID, "u1")
		req.Header.Set(HeaderUserRole, role)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}
