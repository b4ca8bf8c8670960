package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.GetInt("server.port"))
	assert.Equal(t, "sqlite", cfg.GetString("database.type"))
	assert.Equal(t, "sqlite", cfg.GetString("tenantdb.type"))
	assert.NotEmpty(t, cfg.GetString("tenantdb.dsn_template"))
	assert.Equal(t, 4, cfg.GetInt("webhook.workers"))
	assert.Equal(t, 256, cfg.GetInt("webhook.queue_size"))
	assert.Equal(t, 3, cfg.GetInt("webhook.max_retries"))

	// Secret key is generated when not configured
	assert.NotEmpty(t, cfg.GetString("security.secret_key"))
}

func TestValidateConfig(t *testing.T) {
	valid := func(t *testing.T) map[string]interface{} {
		t.Helper()
		return map[string]interface{}{
			"database.type":         "sqlite",
			"database.path":         "test.db",
			"tenantdb.type":         "sqlite",
			"tenantdb.dsn_template": "tenant_%s.db",
			"server.port":           8080,
			"security.secret_key":   "secret",
			"webhook.workers":       4,
			"webhook.queue_size":    256,
		}
	}

	apply := func(t *testing.T, overrides map[string]interface{}) error {
		t.Helper()
		cfg, err := Load()
		require.NoError(t, err)
		for k, v := range valid(t) {
			cfg.Set(k, v)
		}
		for k, v := range overrides {
			cfg.Set(k, v)
		}
		return ValidateConfig(cfg)
	}

	t.Run("ValidPasses", func(t *testing.T) {
		assert.NoError(t, apply(t, nil))
	})

	t.Run("UnknownDatabaseType", func(t *testing.T) {
		assert.Error(t, apply(t, map[string]interface{}{"database.type": "oracle"}))
	})

	t.Run("MissingDSNTemplate", func(t *testing.T) {
		assert.Error(t, apply(t, map[string]interface{}{"tenantdb.dsn_template": ""}))
	})

	t.Run("InvalidPort", func(t *testing.T) {
		assert.Error(t, apply(t, map[string]interface{}{"server.port": 99999}))
	})

	t.Run("MissingSecretKey", func(t *testing.T) {
		assert.Error(t, apply(t, map[string]interface{}{"security.secret_key": ""}))
	})

	t.Run("ZeroWorkers", func(t *testing.T) {
		assert.Error(t, apply(t, map[string]interface{}{"webhook.workers": 0}))
	})
}
