// Package telemetry provides opt-in error reporting via Sentry.
// It is disabled by default and only activated through configuration.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sportea/modtune/internal/conf"
	"github.com/sportea/modtune/internal/errors"
	"github.com/sportea/modtune/internal/logging"
)

// SentryReporter implements errors.TelemetryReporter backed by Sentry.
type SentryReporter struct {
	enabled bool
}

// Init configures Sentry from settings and registers the reporter with the
// errors package. When telemetry is disabled this is a no-op.
func Init(settings *conf.Settings) error {
	if !settings.Sentry.Enabled {
		errors.SetTelemetryReporter(nil)
		return nil
	}
	if settings.Sentry.DSN == "" {
		return fmt.Errorf("sentry enabled but no DSN configured")
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		Environment:      settings.Sentry.Environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	errors.SetTelemetryReporter(&SentryReporter{enabled: true})
	logging.ForService("telemetry").Info("sentry telemetry enabled",
		"environment", settings.Sentry.Environment)
	return nil
}

// Flush drains pending events before shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr != nil && sr.enabled
}

// ReportError reports an enhanced error to Sentry. Only the error category,
// component and message are sent; context values are attached as tags.
func (sr *SentryReporter) ReportError(ee *errors.EnhancedError) {
	if !sr.IsEnabled() {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", ee.GetCategory())
		if p := ee.GetPriority(); p != "" {
			scope.SetTag("priority", p)
		}
		for key, value := range ee.GetContext() {
			scope.SetContext(key, map[string]any{"value": value})
		}
		scope.SetLevel(levelForPriority(ee.GetPriority()))
		scope.SetFingerprint([]string{ee.GetComponent(), ee.GetCategory()})

		sentry.CaptureMessage(fmt.Sprintf("[%s] %s", ee.GetCategory(), ee.Error()))
	})
}

func levelForPriority(priority string) sentry.Level {
	switch priority {
	case errors.PriorityCritical:
		return sentry.LevelFatal
	case errors.PriorityHigh:
		return sentry.LevelError
	case errors.PriorityLow:
		return sentry.LevelInfo
	default:
		return sentry.LevelWarning
	}
}
