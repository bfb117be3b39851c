// Package serve implements the serve command which runs the HTTP service.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sportea/modtune/internal/api"
	"github.com/sportea/modtune/internal/conf"
	"github.com/sportea/modtune/internal/datastore"
	"github.com/sportea/modtune/internal/learning"
	"github.com/sportea/modtune/internal/logging"
	"github.com/sportea/modtune/internal/observability"
	"github.com/sportea/modtune/internal/observability/metrics"
	"github.com/sportea/modtune/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the threshold learning service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	logging.Init()
	logger := logging.ForService("serve")

	if err := telemetry.Init(settings); err != nil {
		logger.Warn("telemetry initialization failed, continuing without it", "error", err)
	}
	defer telemetry.Flush(2 * time.Second)

	if err := learning.InitializeLogger("logs/learning.log", settings.Learning.Debug); err != nil {
		logger.Warn("learning file logger unavailable", "error", err)
	}
	defer func() {
		if err := learning.CloseLogger(); err != nil {
			logger.Warn("failed to close learning log", "error", err)
		}
	}()

	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close datastore", "error", err)
		}
	}()
	if setter, ok := store.(interface {
		SetMetrics(*metrics.DatastoreMetrics)
	}); ok {
		setter.SetMetrics(m.Datastore)
	}

	engine := learning.New(store, settings, learning.WithMetrics(m.Learning))

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	if settings.WebServer.Debug {
		e.Use(middleware.Logger())
	}

	controller := api.New(e, store, engine, settings, m)
	defer controller.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + settings.WebServer.Port
		logger.Info("starting http server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
