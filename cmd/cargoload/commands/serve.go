package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/handler"
	"github.com/piwi3910/CargoLoad/internal/telemetry"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the problem, solve, job and run API.

Configuration is read from CARGOLOAD_* environment variables, for example
CARGOLOAD_SERVER_PORT, CARGOLOAD_DATABASE_DSN, CARGOLOAD_RABBITMQ_DSN,
CARGOLOAD_STORAGE_BACKEND and CARGOLOAD_AUTH_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := c.logger

			ctx, stop := signalContext(cmd)
			defer stop()

			shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
			if err != nil {
				return err
			}
			defer shutdownTracing(context.Background())

			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			h, err := handler.NewHandler(cfg, b.svc, b.metrics, logger)
			if err != nil {
				return err
			}
			h.RegisterRoutes()

			srv := &http.Server{
				Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
				Handler:      h.Mux,
				IdleTimeout:  config.Seconds(cfg.Server.IdleTimeout),
				ReadTimeout:  config.Seconds(cfg.Server.ReadTimeout),
				WriteTimeout: config.Seconds(cfg.Server.WriteTimeout),
				ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
}
