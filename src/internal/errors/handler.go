package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// ErrorHandler provides centralized error handling for GemVault
type ErrorHandler struct {
	config     *viper.Viper
	production bool
	logger     *ErrorLogger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(config *viper.Viper) *ErrorHandler {
	return &ErrorHandler{
		config:     config,
		production: config.GetString("environment") == "production",
		logger:     NewErrorLogger(config),
	}
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error      string                 `json:"error"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id,omitempty"`
	Path       string                 `json:"path,omitempty"`
	Method     string                 `json:"method,omitempty"`
	StatusCode int                    `json:"status_code"`
}

// CustomError represents a custom application error
type CustomError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code"`
	StatusCode int                    `json:"status_code"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
}

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation_error"
	ErrorTypeDatabase       ErrorType = "database_error"
	ErrorTypeAuthentication ErrorType = "authentication_error"
	ErrorTypeAuthorization  ErrorType = "authorization_error"
	ErrorTypeNotFound       ErrorType = "not_found_error"
	ErrorTypeConflict       ErrorType = "conflict_error"
	ErrorTypeRateLimit      ErrorType = "rate_limit_error"
	ErrorTypeServer         ErrorType = "server_error"
	ErrorTypeTenant         ErrorType = "tenant_error"
	ErrorTypeExternal       ErrorType = "external_service_error"
)

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As chains
func (e *CustomError) Unwrap() error {
	return e.Cause
}

// NewCustomError creates a new custom error
func NewCustomError(errorType ErrorType, message, code string, statusCode int) *CustomError {
	return &CustomError{
		Type:       errorType,
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// WithCause adds a cause to the error
func (e *CustomError) WithCause(cause error) *CustomError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *CustomError) WithDetail(key string, value interface{}) *CustomError {
	e.Details[key] = value
	return e
}

// Common error constructors

func NewValidationError(message, field string) *CustomError {
	return NewCustomError(ErrorTypeValidation, message, "VALIDATION_FAILED", http.StatusBadRequest).
		WithDetail("field", field)
}

func DatabaseError(message string, cause error) *CustomError {
	return NewCustomError(ErrorTypeDatabase, message, "DATABASE_ERROR", http.StatusInternalServerError).
		WithCause(cause)
}

func NotFoundError(resource, id string) *CustomError {
	return NewCustomError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), "NOT_FOUND", http.StatusNotFound).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func UnauthorizedError(message string) *CustomError {
	return NewCustomError(ErrorTypeAuthentication, message, "UNAUTHORIZED", http.StatusUnauthorized)
}

func ForbiddenError(message string) *CustomError {
	return NewCustomError(ErrorTypeAuthorization, message, "FORBIDDEN", http.StatusForbidden)
}

func ConflictError(message, resource string) *CustomError {
	return NewCustomError(ErrorTypeConflict, message, "CONFLICT", http.StatusConflict).
		WithDetail("resource", resource)
}

func RateLimitError(limit int, window string) *CustomError {
	return NewCustomError(ErrorTypeRateLimit, "Rate limit exceeded", "RATE_LIMITED", http.StatusTooManyRequests).
		WithDetail("limit", limit).
		WithDetail("window", window)
}

// TenantNotFoundError is returned when a client code does not resolve to a
// registered tenant.
func TenantNotFoundError(clientCode string) *CustomError {
	return NewCustomError(ErrorTypeTenant, "Unknown client code", "TENANT_NOT_FOUND", http.StatusNotFound).
		WithDetail("client_code", clientCode)
}

// InvalidSubscriptionError is returned when webhook subscription input is
// missing required fields.
func InvalidSubscriptionError(message string) *CustomError {
	return NewCustomError(ErrorTypeValidation, message, "INVALID_SUBSCRIPTION", http.StatusBadRequest)
}

func ExternalServiceError(service, message string, cause error) *CustomError {
	return NewCustomError(ErrorTypeExternal, fmt.Sprintf("%s service error: %s", service, message), "EXTERNAL_SERVICE_ERROR", http.StatusBadGateway).
		WithDetail("service", service).
		WithCause(cause)
}

// HTTPErrorHandler handles HTTP errors for Echo
func (h *ErrorHandler) HTTPErrorHandler(err error, c echo.Context) {
	var (
		code    = http.StatusInternalServerError
		message = "Internal server error"
		details = make(map[string]interface{})
		errCode = "INTERNAL_ERROR"
	)

	// Extract request information
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = c.Request().Header.Get("X-Request-ID")
	}

	path := c.Request().URL.Path
	method := c.Request().Method

	// Handle different error types
	switch e := err.(type) {
	case *CustomError:
		code = e.StatusCode
		message = e.Message
		errCode = e.Code
		details = e.Details

		h.logger.LogError(e, map[string]interface{}{
			"request_id": requestID,
			"path":       path,
			"method":     method,
			"ip":         c.RealIP(),
		})

	case *echo.HTTPError:
		code = e.Code
		message = fmt.Sprintf("%v", e.Message)

		// Map common HTTP errors to our error codes
		switch code {
		case http.StatusNotFound:
			errCode = "NOT_FOUND"
			message = "Resource not found"
		case http.StatusMethodNotAllowed:
			errCode = "METHOD_NOT_ALLOWED"
			message = "Method not allowed"
		case http.StatusBadRequest:
			errCode = "BAD_REQUEST"
		case http.StatusUnauthorized:
			errCode = "UNAUTHORIZED"
			message = "Authentication required"
		case http.StatusForbidden:
			errCode = "FORBIDDEN"
			message = "Access denied"
		}

	case *json.SyntaxError:
		code = http.StatusBadRequest
		message = "Invalid JSON format"
		errCode = "INVALID_JSON"
		details["offset"] = e.Offset

	default:
		// Log unexpected errors with stack trace
		h.logger.LogError(err, map[string]interface{}{
			"request_id": requestID,
			"path":       path,
			"method":     method,
			"stack":      string(debug.Stack()),
		})

		if strings.Contains(err.Error(), "connection refused") {
			code = http.StatusBadGateway
			message = "Service temporarily unavailable"
			errCode = "SERVICE_UNAVAILABLE"
		} else if strings.Contains(err.Error(), "timeout") {
			code = http.StatusRequestTimeout
			message = "Request timeout"
			errCode = "TIMEOUT"
		}
	}

	// Don't expose internal errors in production
	if h.production && code == http.StatusInternalServerError {
		message = "Internal server error"
		details = map[string]interface{}{
			"error_id": requestID,
		}
	}

	errorResponse := ErrorResponse{
		Error:      message,
		Message:    message,
		Code:       errCode,
		Details:    details,
		Timestamp:  time.Now(),
		RequestID:  requestID,
		Path:       path,
		Method:     method,
		StatusCode: code,
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, errorResponse)
		}
		if err != nil {
			h.logger.LogError(fmt.Errorf("failed to send error response: %w", err), nil)
		}
	}
}

// RecoverMiddleware provides panic recovery
func (h *ErrorHandler) RecoverMiddleware() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			h.logger.LogError(err, map[string]interface{}{
				"panic_stack": string(stack),
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
				"path":        c.Request().URL.Path,
				"method":      c.Request().Method,
			})
			return err
		},
	})
}

// DatabaseErrorWrapper wraps database operations with error handling
func (h *ErrorHandler) DatabaseErrorWrapper(operation string, fn func() error) error {
	err := fn()
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return NotFoundError("Resource", "")
		}

		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key") {
			return ConflictError("Resource already exists", "")
		}

		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewValidationError("Referenced resource does not exist", "")
		}

		return DatabaseError(fmt.Sprintf("Database operation failed: %s", operation), err)
	}
	return nil
}

// GetErrorStats returns error statistics
func (h *ErrorHandler) GetErrorStats() map[string]interface{} {
	return h.logger.GetErrorStats()
}
