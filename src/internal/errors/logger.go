package errors

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// ErrorLogger handles error logging to file and console
type ErrorLogger struct {
	config     *viper.Viper
	fileLogger *log.Logger
	logFile    *os.File
	stats      *ErrorStats
}

// ErrorStats tracks error statistics
type ErrorStats struct {
	mu             sync.RWMutex
	TotalErrors    int64               `json:"total_errors"`
	ErrorsByType   map[ErrorType]int64 `json:"errors_by_type"`
	ErrorsByStatus map[int]int64       `json:"errors_by_status"`
	StartTime      time.Time           `json:"start_time"`
}

// NewErrorLogger creates a new error logger
func NewErrorLogger(config *viper.Viper) *ErrorLogger {
	logger := &ErrorLogger{
		config: config,
		stats: &ErrorStats{
			ErrorsByType:   make(map[ErrorType]int64),
			ErrorsByStatus: make(map[int]int64),
			StartTime:      time.Now(),
		},
	}

	logger.initializeFileLogger()

	return logger
}

// initializeFileLogger sets up file-based logging
func (l *ErrorLogger) initializeFileLogger() {
	logPath := l.config.GetString("logging.file")
	if logPath == "" {
		return
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open error log file: %v", err)
		return
	}

	l.logFile = file
	l.fileLogger = log.New(file, "", log.LstdFlags|log.Lmicroseconds)
}

// LogError logs an error with request context
func (l *ErrorLogger) LogError(err error, context map[string]interface{}) {
	errorType := ErrorTypeServer
	code := "UNKNOWN_ERROR"
	statusCode := 500

	if customErr, ok := err.(*CustomError); ok {
		errorType = customErr.Type
		code = customErr.Code
		statusCode = customErr.StatusCode
	}

	l.updateStats(errorType, statusCode)

	line := fmt.Sprintf("[%s] %s - %s", errorType, code, err.Error())
	if context != nil {
		if method, ok := context["method"].(string); ok {
			line = fmt.Sprintf("[%s] %s %s %d %s - %s",
				errorType, method, context["path"], statusCode, code, err.Error())
		}
		if stack, ok := context["panic_stack"].(string); ok {
			line += fmt.Sprintf("\nStack: %s", stack)
		}
	}

	if l.fileLogger != nil {
		l.fileLogger.Println(line)
	}

	// Console in development
	if l.config.GetString("environment") != "production" {
		log.Println(line)
	}
}

// updateStats updates error statistics
func (l *ErrorLogger) updateStats(errorType ErrorType, statusCode int) {
	l.stats.mu.Lock()
	defer l.stats.mu.Unlock()

	l.stats.TotalErrors++
	l.stats.ErrorsByType[errorType]++
	l.stats.ErrorsByStatus[statusCode]++
}

// GetErrorStats returns error statistics
func (l *ErrorLogger) GetErrorStats() map[string]interface{} {
	l.stats.mu.RLock()
	defer l.stats.mu.RUnlock()

	uptime := time.Since(l.stats.StartTime)

	return map[string]interface{}{
		"total_errors":     l.stats.TotalErrors,
		"errors_by_type":   l.stats.ErrorsByType,
		"errors_by_status": l.stats.ErrorsByStatus,
		"uptime":           uptime.String(),
		"start_time":       l.stats.StartTime,
	}
}

// Close closes the error logger
func (l *ErrorLogger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}
