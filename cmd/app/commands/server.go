package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/kmi/internal/app"
	"github.com/allisson/kmi/internal/config"
)

// runnable is a listener with a graceful stop.
type runnable interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type namedRunnable struct {
	name string
	runnable
}

// RunServer serves the key protocol, plus the metrics endpoint when enabled, until
// SIGINT or SIGTERM arrives or one of the listeners fails. All listeners are then
// given ServerShutdownTimeout to drain.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	logger.Info("starting server",
		slog.String("version", version),
		slog.String("mode", cfg.FacilityMode),
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	listeners, err := buildListeners(ctx, container)
	if err != nil {
		return err
	}

	if err := serveUntilDone(ctx, listeners, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// buildListeners resolves the API server, which initializes the facility, and the
// optional metrics server.
func buildListeners(ctx context.Context, container *app.Container) ([]namedRunnable, error) {
	server, err := container.HTTPServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	listeners := []namedRunnable{{name: "api server", runnable: server}}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		listeners = append(listeners, namedRunnable{name: "metrics server", runnable: metricsServer})
	}
	return listeners, nil
}

// serveUntilDone starts every listener and stops all of them once ctx ends or any
// of them fails.
func serveUntilDone(ctx context.Context, listeners []namedRunnable, cfg *config.Config, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, l := range listeners {
		g.Go(func() error {
			if err := l.Start(gctx); err != nil {
				return fmt.Errorf("%s error: %w", l.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("shutdown signal received")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer shutdownCancel()

		var errs []error
		for _, l := range listeners {
			if err := l.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("%s shutdown: %w", l.name, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
