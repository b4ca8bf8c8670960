package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/gemvault/gemvault/src/internal/config"
	"github.com/gemvault/gemvault/src/internal/database"
	"github.com/gemvault/gemvault/src/internal/server"
	"github.com/gemvault/gemvault/src/internal/tenant"
)

var (
	Version = "dev"
)

func main() {
	setupLogging()

	args := os.Args[1:]

	// Handle commands first
	if len(args) > 0 {
		switch args[0] {
		case "migrate-tenants":
			if err := handleMigrateTenantsCommand(); err != nil {
				log.Fatalf("Tenant migration failed: %v", err)
			}
			return
		case "--version", "-v":
			fmt.Printf("GemVault v%s\n", Version)
			os.Exit(0)
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		case "--config-check":
			if err := handleConfigCheckCommand(); err != nil {
				log.Fatalf("Configuration check failed: %v", err)
			}
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.Set("version", Version)

	// Initialize the control-plane database
	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	defer sqlDB.Close()

	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := server.New(e, cfg, db)

	port := cfg.GetInt("server.port")
	log.Printf("GemVault v%s starting on port %d", Version, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.Start(ctx, fmt.Sprintf(":%d", port)); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}

func printHelp() {
	fmt.Printf(`GemVault v%s - Multi-tenant jewelry inventory API

Usage:
  gemvault [options] [command]

Commands:
  migrate-tenants    Open and migrate every registered tenant database

Options:
  -h, --help         Show this help message
  -v, --version      Show version information
  --config-check     Validate configuration file

Environment Variables:
  GEMVAULT_SERVER_PORT            Server port (default: 8080)
  GEMVAULT_DATABASE_TYPE          Control database type: sqlite|postgresql|mysql
  GEMVAULT_TENANTDB_DSN_TEMPLATE  DSN template for per-tenant databases
  GEMVAULT_SECURITY_SECRET_KEY    Server secret key (auto-generated if empty)
  GEMVAULT_LOG_DIR                Log directory

Examples:
  gemvault                    Start the server
  gemvault migrate-tenants    Migrate all tenant databases
  gemvault --config-check     Validate configuration
`, Version)
}

// handleConfigCheckCommand validates configuration without starting the server
func handleConfigCheckCommand() error {
	fmt.Println("Checking GemVault configuration...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Configuration loading failed: %v\n", err)
		return err
	}
	fmt.Println("Configuration loaded successfully")

	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}
	fmt.Println("Configuration values valid")

	if err := testDatabaseConnection(cfg); err != nil {
		fmt.Printf("Database connection failed: %v\n", err)
		return err
	}
	fmt.Println("Database connection successful")

	fmt.Println("\nConfiguration is valid and ready")
	return nil
}

// handleMigrateTenantsCommand runs schema migrations for every active tenant
func handleMigrateTenantsCommand() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Initialize(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if err := database.MigrateDB(db); err != nil {
		return err
	}

	resolver := tenant.NewResolver(cfg, db)
	defer resolver.Close()

	if err := resolver.MigrateAll(); err != nil {
		return err
	}

	log.Println("All tenant databases migrated")
	return nil
}

func testDatabaseConnection(cfg *viper.Viper) error {
	db, err := database.Initialize(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if sqlDB, err := db.DB(); err == nil {
		return sqlDB.Ping()
	}
	return nil
}

// setupLogging configures console output and server.log file
func setupLogging() {
	logDir := os.Getenv("GEMVAULT_LOG_DIR")
	if logDir == "" {
		logDir = "/var/log/gemvault"
	}

	if err := os.MkdirAll(logDir, 0755); err == nil {
		serverLogPath := filepath.Join(logDir, "server.log")
		if logFile, err := os.OpenFile(serverLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			multiWriter := io.MultiWriter(os.Stdout, logFile)
			log.SetOutput(multiWriter)
			log.Printf("✓ Server logging: %s", serverLogPath)
		}
	}

	log.SetFlags(log.Ldate | log.Ltime)
}
