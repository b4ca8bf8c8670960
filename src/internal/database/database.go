package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gemvault/gemvault/src/internal/database/models"
)

// Initialize opens the control-plane database connection
func Initialize(cfg *viper.Viper) (*gorm.DB, error) {
	dsn, err := controlPlaneDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := Open(cfg.GetString("database.type"), dsn, cfg.GetBool("debug"))
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	maxConns := cfg.GetInt("database.max_open_conns")
	if maxConns <= 0 {
		maxConns = 25 // default
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(cfg.GetInt("database.max_idle_conns"))
	sqlDB.SetConnMaxLifetime(cfg.GetDuration("database.conn_max_lifetime"))

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Open opens a GORM connection for the given driver type and DSN. It is used
// for both the control-plane database and the per-tenant databases.
func Open(dbType, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	// Use Silent for production, Info for debug
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// MigrateDB migrates the control-plane schema
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.ControlPlaneModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrateTenantDB migrates the business schema of one tenant database
func MigrateTenantDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.TenantModels()...); err != nil {
		return fmt.Errorf("failed to run tenant migrations: %w", err)
	}
	return nil
}

func controlPlaneDSN(cfg *viper.Viper) (string, error) {
	switch cfg.GetString("database.type") {
	case "sqlite", "":
		return cfg.GetString("database.path"), nil
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.GetString("database.host"),
			cfg.GetInt("database.port"),
			cfg.GetString("database.user"),
			cfg.GetString("database.password"),
			cfg.GetString("database.name"),
		), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.GetString("database.user"),
			cfg.GetString("database.password"),
			cfg.GetString("database.host"),
			cfg.GetInt("database.port"),
			cfg.GetString("database.name"),
		), nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", cfg.GetString("database.type"))
	}
}
