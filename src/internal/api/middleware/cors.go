package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
)

// CORS admits browser clients from the configured origin allowlist. The API
// authenticates with Bearer tokens and sets no cookies, so credentialed
// cross-origin requests are never enabled.
func CORS(cfg *viper.Viper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get("Origin")

			// Same-origin and non-browser clients send no Origin header
			if origin == "" {
				return next(c)
			}

			if !originAllowed(cfg.GetStringSlice("cors.allowed_origins"), origin) {
				return echo.NewHTTPError(http.StatusForbidden, "Origin not allowed")
			}

			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", cfg.GetString("cors.allowed_methods"))
			h.Set("Access-Control-Allow-Headers", cfg.GetString("cors.allowed_headers"))
			h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.GetInt("cors.max_age")))
			h.Set("Vary", "Origin")

			if req.Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}

// originAllowed reports whether the origin is in the allowlist. An empty
// allowlist or a "*" entry admits every origin.
func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
