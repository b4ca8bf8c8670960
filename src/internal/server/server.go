package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	echoMiddleware "github.com/gemvault/gemvault/src/internal/api/middleware"
	"github.com/gemvault/gemvault/src/internal/auth"
	"github.com/gemvault/gemvault/src/internal/cache"
	"github.com/gemvault/gemvault/src/internal/errors"
	"github.com/gemvault/gemvault/src/internal/tenant"
	"github.com/gemvault/gemvault/src/internal/webhook"
)

// Server represents the main application server
type Server struct {
	echo         *echo.Echo
	config       *viper.Viper
	db           *gorm.DB
	resolver     *tenant.Resolver
	cache        *cache.CacheManager
	auth         *auth.AuthService
	store        *webhook.Store
	recorder     *webhook.Recorder
	dispatcher   *webhook.Dispatcher
	errorHandler *errors.ErrorHandler
	startTime    time.Time
}

// New creates a new server instance wired to the control-plane database
func New(e *echo.Echo, cfg *viper.Viper, db *gorm.DB) *Server {
	resolver := tenant.NewResolver(cfg, db)
	cacheManager := cache.NewCacheManager(cfg)

	authService := auth.NewAuthService(
		cfg.GetString("security.secret_key"),
		cfg.GetString("app.name"),
		cfg.GetDuration("security.jwt.access_token_ttl"),
	)

	store := webhook.NewStore(db, cfg.GetBool("webhook.allow_insecure_targets"))
	recorder := webhook.NewRecorder(db,
		cfg.GetDuration("webhook.timeout"),
		cfg.GetInt("webhook.max_retries"))
	dispatcher := webhook.NewDispatcher(store, recorder,
		cfg.GetInt("webhook.workers"),
		cfg.GetInt("webhook.queue_size"))

	errorHandler := errors.NewErrorHandler(cfg)
	e.HTTPErrorHandler = errorHandler.HTTPErrorHandler
	e.Validator = newRequestValidator()
	e.HideBanner = true

	s := &Server{
		echo:         e,
		config:       cfg,
		db:           db,
		resolver:     resolver,
		cache:        cacheManager,
		auth:         authService,
		store:        store,
		recorder:     recorder,
		dispatcher:   dispatcher,
		errorHandler: errorHandler,
		startTime:    time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Dispatcher exposes the webhook dispatcher for startup wiring
func (s *Server) Dispatcher() *webhook.Dispatcher {
	return s.dispatcher
}

// Start starts the webhook workers and the HTTP listener
func (s *Server) Start(ctx context.Context, address string) error {
	s.dispatcher.Start(ctx)
	return s.echo.Start(address)
}

// Shutdown drains the webhook queue and stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.dispatcher.Stop()

	if s.cache != nil {
		s.cache.Close()
	}
	if s.resolver != nil {
		s.resolver.Close()
	}

	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	// Pretty console logging + Apache format file logging
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "  ${time_rfc3339} | ${status} | ${latency_human} | ${method} ${uri}\n",
		Output: os.Stdout,
	}))
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format:           `${remote_ip} - - [${time_custom}] "${method} ${uri} ${protocol}" ${status} ${bytes_out}` + "\n",
		CustomTimeFormat: "02/Jan/2006:15:04:05 -0700",
		Output:           s.getAccessLogWriter(),
	}))

	s.echo.Use(s.errorHandler.RecoverMiddleware())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(echoMiddleware.CORS(s.config))
	s.echo.Use(echoMiddleware.Security())

	s.echo.Use(echoMiddleware.DatabaseInjector(s.db))
	s.echo.Use(echoMiddleware.ConfigInjector(s.config))
	s.echo.Use(echoMiddleware.ResolverInjector(s.resolver))

	// Auth runs before rate limiting so authenticated requests are limited
	// per tenant rather than per IP
	authMiddleware := auth.NewMiddleware(s.auth)
	s.echo.Use(authMiddleware.Auth())
	s.echo.Use(echoMiddleware.RateLimit(s.config))
}

// requestValidator adapts go-playground struct validation to echo's
// Validator interface. Tag failures surface as 400s with the failing fields
// named, not the raw validator error dump.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

func (v *requestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	if verrs, ok := err.(validator.ValidationErrors); ok {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(fields, "; "))
	}

	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// getAccessLogWriter returns a file writer for Apache format access logs,
// or discards them when no log directory is configured
func (s *Server) getAccessLogWriter() io.Writer {
	logDir := s.config.GetString("logging.dir")
	if logDir == "" {
		return io.Discard
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("Warning: Failed to create log directory %s: %v", logDir, err)
		return io.Discard
	}

	accessLogPath := filepath.Join(logDir, "access.log")
	logFile, err := os.OpenFile(accessLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Warning: Failed to open access log %s: %v", accessLogPath, err)
		return io.Discard
	}

	log.Printf("✓ Access logging: %s", accessLogPath)
	return logFile
}
