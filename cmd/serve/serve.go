// Package serve implements the HTTP server subcommand.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wildwatch/wildwatch-go/internal/alert"
	"github.com/wildwatch/wildwatch-go/internal/api"
	"github.com/wildwatch/wildwatch-go/internal/conf"
	"github.com/wildwatch/wildwatch-go/internal/datastore"
	"github.com/wildwatch/wildwatch-go/internal/detection"
	"github.com/wildwatch/wildwatch-go/internal/logging"
	"github.com/wildwatch/wildwatch-go/internal/notification"
	"github.com/wildwatch/wildwatch-go/internal/observability"
)

// shutdownTimeout bounds how long in-flight requests may run during shutdown.
const shutdownTimeout = 10 * time.Second

// Command creates the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the wildlife alert HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}
}

func runServer(settings *conf.Settings) error {
	log := logging.ForService("serve")

	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening recipient store: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Error("failed to close recipient store", "error", err)
		}
	}()

	var channel notification.Channel
	if settings.Notification.Enabled {
		emailChannel, err := notification.NewEmailChannel(settings)
		if err != nil {
			// A channel that cannot be constructed is a fatal configuration
			// error, reported once here rather than per recipient.
			return fmt.Errorf("constructing notification channel: %w", err)
		}
		channel = emailChannel
	} else {
		log.Warn("notification delivery disabled, alerts will be logged only")
		channel = notification.NewLogChannel()
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	dispatcher := notification.NewDispatcher(channel, settings.Notification.Timeout)
	capability := detection.NewClient(settings)
	handler := alert.New(capability, ds, dispatcher, settings.Camera.Location, metrics)

	controller := api.New(settings, ds, handler, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- controller.Start()
	}()

	log.Info("wildlife alert server started",
		"port", settings.WebServer.Port,
		"camera_location", settings.Camera.Location)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := controller.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
