package tenant

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/database"
	"github.com/gemvault/gemvault/src/internal/database/models"
	"github.com/gemvault/gemvault/src/internal/errors"
)

// Resolver maps client codes to tenant database connections. Connections are
// opened lazily on first use and cached; the tenant schema is migrated on
// first open. Cached connections are evicted when the tenant is deactivated.
type Resolver struct {
	config    *viper.Viper
	controlDB *gorm.DB

	mu    sync.RWMutex
	pools map[string]*gorm.DB
}

// NewResolver creates a resolver backed by the control-plane database
func NewResolver(cfg *viper.Viper, controlDB *gorm.DB) *Resolver {
	return &Resolver{
		config:    cfg,
		controlDB: controlDB,
		pools:     make(map[string]*gorm.DB),
	}
}

// Resolve returns the database connection for the given client code. Unknown
// or inactive client codes return a tenant-not-found error.
func (r *Resolver) Resolve(clientCode string) (*gorm.DB, error) {
	clientCode = strings.TrimSpace(clientCode)
	if clientCode == "" {
		return nil, errors.TenantNotFoundError(clientCode)
	}

	// Fast path: connection already open. The active flag is still verified
	// so deactivating a tenant cuts off cached connections too.
	r.mu.RLock()
	db, ok := r.pools[clientCode]
	r.mu.RUnlock()
	if ok {
		if _, err := r.lookupTenant(clientCode); err != nil {
			r.evict(clientCode)
			return nil, err
		}
		return db, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock; another request may have opened it
	if db, ok := r.pools[clientCode]; ok {
		return db, nil
	}

	tenant, err := r.lookupTenant(clientCode)
	if err != nil {
		return nil, err
	}

	db, err = r.open(tenant)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to open tenant database for %s", clientCode), err)
	}

	if err := database.MigrateTenantDB(db); err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to migrate tenant database for %s", clientCode), err)
	}

	r.pools[clientCode] = db
	return db, nil
}

// lookupTenant finds an active tenant row for the client code
func (r *Resolver) lookupTenant(clientCode string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.controlDB.
		Where("client_code = ? AND is_active = ?", clientCode, true).
		First(&tenant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.TenantNotFoundError(clientCode)
		}
		return nil, errors.DatabaseError("failed to look up tenant", err)
	}
	return &tenant, nil
}

// open dials the tenant database using the configured DSN template
func (r *Resolver) open(tenant *models.Tenant) (*gorm.DB, error) {
	dbName := tenant.DBName
	if dbName == "" {
		dbName = tenant.ClientCode
	}

	dsn := fmt.Sprintf(r.config.GetString("tenantdb.dsn_template"), dbName)

	db, err := database.Open(r.config.GetString("tenantdb.type"), dsn, r.config.GetBool("debug"))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(r.config.GetInt("tenantdb.max_open_conns"))
	sqlDB.SetMaxIdleConns(r.config.GetInt("tenantdb.max_idle_conns"))

	return db, nil
}

// evict closes and removes a cached tenant connection
func (r *Resolver) evict(clientCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	db, ok := r.pools[clientCode]
	if !ok {
		return
	}
	delete(r.pools, clientCode)
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// MigrateAll opens and migrates every active tenant database. Used by the
// migrate-tenants command so schema changes roll out ahead of traffic.
func (r *Resolver) MigrateAll() error {
	var tenants []models.Tenant
	if err := r.controlDB.Where("is_active = ?", true).Find(&tenants).Error; err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	for _, t := range tenants {
		if _, err := r.Resolve(t.ClientCode); err != nil {
			return fmt.Errorf("failed to migrate tenant %s: %w", t.ClientCode, err)
		}
	}

	return nil
}

// Close closes all cached tenant connections
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for code, db := range r.pools {
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close tenant database %s: %w", code, err)
		}
		delete(r.pools, code)
	}
	return firstErr
}
