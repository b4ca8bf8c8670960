package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*viper.Viper, error) {
	v := viper.New()

	// Set config type
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix("GEMVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Load config file if exists
	configPaths := []string{
		".",
		"/etc/gemvault",
	}

	for _, path := range configPaths {
		v.AddConfigPath(path)
	}
	v.SetConfigName("config")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Expand ~ and env vars in filesystem paths
	if v.GetString("database.type") == "sqlite" {
		v.Set("database.path", expandPath(v.GetString("database.path")))
	}
	if dir := v.GetString("logging.dir"); dir != "" {
		v.Set("logging.dir", expandPath(dir))
	}

	// Generate secret key if not set
	if v.GetString("security.secret_key") == "" {
		key, err := generateSecretKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret key: %w", err)
		}
		v.Set("security.secret_key", key)
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Control-plane database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "gemvault.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "gemvault")
	v.SetDefault("database.user", "gemvault")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")

	// Per-tenant database defaults. The DSN template receives the tenant's
	// database name via %s; sqlite templates receive a file path instead.
	v.SetDefault("tenantdb.type", "sqlite")
	v.SetDefault("tenantdb.dsn_template", "tenant_%s.db")
	v.SetDefault("tenantdb.max_open_conns", 10)
	v.SetDefault("tenantdb.max_idle_conns", 2)

	// Security defaults
	v.SetDefault("security.secret_key", "")
	v.SetDefault("security.jwt.access_token_ttl", "2h")
	v.SetDefault("security.jwt.refresh_token_ttl", "72h")
	v.SetDefault("security.password.min_length", 8)

	// Webhook delivery defaults
	v.SetDefault("webhook.workers", 4)
	v.SetDefault("webhook.queue_size", 256)
	v.SetDefault("webhook.timeout", "30s")
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.allow_insecure_targets", false)

	// CORS
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", "GET,POST,PUT,DELETE,OPTIONS")
	v.SetDefault("cors.allowed_headers", "Authorization,Content-Type,X-Request-ID")
	v.SetDefault("cors.max_age", 3600)

	// Rate limiting defaults (requests per second per client)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rate", 20)
	v.SetDefault("ratelimit.burst", 40)

	// Cache defaults
	v.SetDefault("cache.type", "memory") // memory or redis
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	// Logging defaults
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.dir", "")

	// Application identity, used as the JWT issuer
	v.SetDefault("app.name", "gemvault")
}

func expandPath(path string) string {
	// Expand environment variables
	path = os.ExpandEnv(path)

	// Expand home directory
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}

	// Clean the path
	return filepath.Clean(path)
}

func generateSecretKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ValidateConfig validates the configuration
func ValidateConfig(v *viper.Viper) error {
	// Validate control-plane database configuration
	dbType := v.GetString("database.type")
	switch dbType {
	case "sqlite":
		if v.GetString("database.path") == "" {
			return fmt.Errorf("database.path is required for SQLite")
		}
	case "postgresql", "mysql":
		if v.GetString("database.host") == "" {
			return fmt.Errorf("database.host is required for %s", dbType)
		}
		if v.GetString("database.user") == "" {
			return fmt.Errorf("database.user is required for %s", dbType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}

	// Validate tenant database configuration
	tenantType := v.GetString("tenantdb.type")
	switch tenantType {
	case "sqlite", "postgresql", "mysql":
		if v.GetString("tenantdb.dsn_template") == "" {
			return fmt.Errorf("tenantdb.dsn_template is required")
		}
	default:
		return fmt.Errorf("unsupported tenant database type: %s", tenantType)
	}

	// Validate server configuration
	port := v.GetInt("server.port")
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	// Validate security configuration
	if v.GetString("security.secret_key") == "" {
		return fmt.Errorf("security.secret_key is required")
	}

	// Validate webhook delivery configuration
	if v.GetInt("webhook.workers") < 1 {
		return fmt.Errorf("webhook.workers must be at least 1")
	}
	if v.GetInt("webhook.queue_size") < 1 {
		return fmt.Errorf("webhook.queue_size must be at least 1")
	}

	return nil
}
