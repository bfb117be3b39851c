// Package datastore provides logging infrastructure for database operations
package datastore

import (
	"log/slog"
	"sync"

	"github.com/sportea/modtune/internal/errors"
	"github.com/sportea/modtune/internal/logging"
)

// Package-level logger for datastore operations
var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar) // Dynamic level control
	loggerCloseFunc   func() error
	loggerOnce        sync.Once
	loggerMu          sync.RWMutex

	// Log files live under logs/ by project convention.
	defaultLogPath = "logs/datastore.log"
)

// InitializeLogger initializes the datastore logger with the specified log
// file path. Safe to call multiple times - initialization happens only once.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		datastoreLevelVar.Set(slog.LevelInfo)

		var err error
		loggerMu.Lock()
		datastoreLogger, loggerCloseFunc, err = logging.NewFileLogger(logFilePath, "datastore", datastoreLevelVar)
		loggerMu.Unlock()
		if err != nil {
			// Fall back to the service logger instead of failing
			loggerMu.Lock()
			datastoreLogger = logging.ForService("datastore")
			loggerCloseFunc = func() error { return nil }
			loggerMu.Unlock()

			initErr = errors.Newf("datastore: failed to initialize file logger: %v", err).
				Component("datastore").
				Category(errors.CategoryConfiguration).
				Context("log_file", logFilePath).
				Context("operation", "logger_initialization").
				Build()
		}
	})

	return initErr
}

// getLogger returns the logger, initializing it with the default path if needed
func getLogger() *slog.Logger {
	loggerMu.RLock()
	if datastoreLogger != nil {
		defer loggerMu.RUnlock()
		return datastoreLogger
	}
	loggerMu.RUnlock()

	_ = InitializeLogger(defaultLogPath)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return datastoreLogger
}

// SetLogLevel adjusts the datastore log level at runtime.
func SetLogLevel(level slog.Level) {
	datastoreLevelVar.Set(level)
}

// CloseLogger closes the underlying log file, if one was opened.
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}
