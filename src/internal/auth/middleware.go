package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Middleware provides authentication middleware
type Middleware struct {
	authService *AuthService
	skipper     func(c echo.Context) bool
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(authService *AuthService) *Middleware {
	return &Middleware{
		authService: authService,
		skipper:     DefaultSkipper,
	}
}

// DefaultSkipper returns true for paths that don't require authentication
func DefaultSkipper(c echo.Context) bool {
	path := c.Path()

	publicPaths := []string{
		"/health",
		"/api/v1/auth/login",
	}

	for _, p := range publicPaths {
		if p == path {
			return true
		}
	}

	return false
}

// Auth returns the authentication middleware handler
func (m *Middleware) Auth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip authentication for public paths
			if m.skipper != nil && m.skipper(c) {
				return next(c)
			}

			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
			}

			// Validate Bearer token format
			parts := strings.Split(auth, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication format")
			}

			claims, err := m.authService.ValidateToken(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			// Store user information in context; client_code scopes every
			// downstream database access
			c.Set("user_id", claims.UserID)
			c.Set("username", claims.Username)
			c.Set("client_code", claims.ClientCode)
			c.Set("is_admin", claims.IsAdmin)

			return next(c)
		}
	}
}

// RequireAdmin returns middleware that requires admin privileges
func (m *Middleware) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			isAdmin, ok := c.Get("is_admin").(bool)
			if !ok || !isAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin privileges required")
			}
			return next(c)
		}
	}
}
