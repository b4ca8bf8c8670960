package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/tenant"
)

// DatabaseInjector injects the control-plane database into context
func DatabaseInjector(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("db", db)
			return next(c)
		}
	}
}

// ConfigInjector injects the configuration into context
func ConfigInjector(cfg *viper.Viper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	}
}

// ResolverInjector injects the tenant database resolver into context
func ResolverInjector(resolver *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("tenant_resolver", resolver)
			return next(c)
		}
	}
}

// GetDB extracts the control-plane database from context
func GetDB(c echo.Context) *gorm.DB {
	return c.Get("db").(*gorm.DB)
}

// GetConfig extracts configuration from context
func GetConfig(c echo.Context) *viper.Viper {
	return c.Get("config").(*viper.Viper)
}

// GetResolver extracts the tenant resolver from context
func GetResolver(c echo.Context) *tenant.Resolver {
	return c.Get("tenant_resolver").(*tenant.Resolver)
}
