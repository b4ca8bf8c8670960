package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/database/models"
	"github.com/gemvault/gemvault/src/internal/tenant"
	"github.com/gemvault/gemvault/src/internal/webhook"
)

var testDBSeq atomic.Int64

// testEnv wires a resolver, webhook store, and running dispatcher against
// in-memory databases
type testEnv struct {
	resolver   *tenant.Resolver
	store      *webhook.Store
	dispatcher *webhook.Dispatcher
	controlDB  *gorm.DB
	stop       func()
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	controlDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, controlDB.AutoMigrate(models.ControlPlaneModels()...))

	// Unique shared-memory namespace per test so tenant databases do not
	// bleed between tests
	seq := testDBSeq.Add(1)
	cfg := viper.New()
	cfg.Set("tenantdb.type", "sqlite")
	cfg.Set("tenantdb.dsn_template", fmt.Sprintf("file:svc%d_%%s?mode=memory&cache=shared", seq))
	cfg.Set("tenantdb.max_open_conns", 5)
	cfg.Set("tenantdb.max_idle_conns", 1)

	resolver := tenant.NewResolver(cfg, controlDB)

	// httptest targets are plain http
	store := webhook.NewStore(controlDB, true)
	recorder := webhook.NewRecorder(controlDB, 5*time.Second, 3)
	dispatcher := webhook.NewDispatcher(store, recorder, 2, 64)

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)

	env := &testEnv{
		resolver:   resolver,
		store:      store,
		dispatcher: dispatcher,
		controlDB:  controlDB,
	}
	env.stop = func() {
		dispatcher.Stop()
		cancel()
		resolver.Close()
	}
	t.Cleanup(env.stop)

	env.registerTenant(t, "T1")

	return env
}

func (e *testEnv) registerTenant(t *testing.T, clientCode string) {
	t.Helper()
	require.NoError(t, e.controlDB.Create(&models.Tenant{
		ClientCode: clientCode,
		Name:       "Tenant " + clientCode,
		IsActive:   true,
	}).Error)
}
