package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/reqctx"
	"google.golang.org/api/option"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	defaultRole = "user"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorJSON(c echo.Context, status int, code, msg string) error {
	var b errorBody
	b.Error.Code = code
	b.Error.Message = msg
	return c.JSON(status, b)
}

// AuthMiddleware resolves the caller either from a Firebase ID token or, behind a
// trusted gateway, from the X-User-ID / X-User-Role headers.
type AuthMiddleware struct {
	authClient *auth.Client
}

func NewFirebaseAuth(ctx context.Context, projectID, credentialsFile string) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{authClient: client}, nil
}

// NewHeaderAuth trusts identity headers set by an upstream gateway.
func NewHeaderAuth() *AuthMiddleware {
	return &AuthMiddleware{}
}

func (m *AuthMiddleware) identify(c echo.Context) (uid, role string, err error) {
	req := c.Request()
	if m.authClient == nil {
		uid = strings.TrimSpace(req.Header.Get(HeaderUserID))
		if uid == "" {
			return "", "", errors.New("missing uid")
		}
		role = strings.ToLower(strings.TrimSpace(req.Header.Get(HeaderUserRole)))
		if role == "" {
			role = defaultRole
		}
		return uid, role, nil
	}

	authz := req.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", "", errors.New("missing bearer token")
	}
	token, err := m.authClient.VerifyIDToken(req.Context(), strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		return "", "", err
	}
	role = defaultRole
	if r, ok := token.Claims["role"].(string); ok && r != "" {
		role = strings.ToLower(r)
	}
	return token.UID, role, nil
}

func setUser(c echo.Context, uid, role string) {
	c.Set("uid", uid)
	c.Set("role", role)
	req := c.Request()
	c.SetRequest(req.WithContext(reqctx.WithUser(req.Context(), uid, role)))
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, role, err := m.identify(c)
		if err != nil {
			if m.authClient != nil && strings.HasPrefix(c.Request().Header.Get("Authorization"), "Bearer ") {
				return errorJSON(c, http.StatusUnauthorized, "invalid_token", "invalid token")
			}
			return errorJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		}
		setUser(c, uid, role)
		return next(c)
	}
}

// OptionalAuth attaches the caller when credentials verify and otherwise continues anonymously.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if uid, role, err := m.identify(c); err == nil {
			setUser(c, uid, role)
		}
		return next(c)
	}
}
