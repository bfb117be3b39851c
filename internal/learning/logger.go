// Package learning implements the adaptive threshold learning engine: context
// resolution, signal construction, adjustment computation and bounded
// persistence of per-context moderation thresholds.
package learning

import (
	"log/slog"
	"sync"

	"github.com/sportea/modtune/internal/errors"
	"github.com/sportea/modtune/internal/logging"
)

// Package-level logger for learning engine operations
var (
	learningLogger   *slog.Logger
	learningLevelVar = new(slog.LevelVar)
	loggerCloseFunc  func() error
	loggerOnce       sync.Once
	loggerMu         sync.RWMutex

	defaultLogPath = "logs/learning.log"
)

// InitializeLogger initializes the learning logger with the specified log file
// path. Safe to call multiple times - initialization happens only once.
func InitializeLogger(logFilePath string, debug bool) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		if debug {
			learningLevelVar.Set(slog.LevelDebug)
		} else {
			learningLevelVar.Set(slog.LevelInfo)
		}

		var err error
		loggerMu.Lock()
		learningLogger, loggerCloseFunc, err = logging.NewFileLogger(logFilePath, "learning", learningLevelVar)
		loggerMu.Unlock()
		if err != nil {
			// Fall back to the service logger instead of failing
			loggerMu.Lock()
			learningLogger = logging.ForService("learning")
			loggerCloseFunc = func() error { return nil }
			loggerMu.Unlock()

			initErr = errors.Newf("learning: failed to initialize file logger: %v", err).
				Component("learning").
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
	if learningLogger != nil {
		defer loggerMu.RUnlock()
		return learningLogger
	}
	loggerMu.RUnlock()

	_ = InitializeLogger(defaultLogPath, false)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return learningLogger
}

// SetLogLevel adjusts the learning log level at runtime.
func SetLogLevel(level slog.Level) {
	learningLevelVar.Set(level)
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
