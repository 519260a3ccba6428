package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/telemetry"
)

func newWorkerCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume solve jobs from the queue",
		Long: `Consume solve jobs published by the API, solve them and store the runs.

Requires CARGOLOAD_RABBITMQ_DSN. When CARGOLOAD_SMTP_HOST is set, finished
runs are mailed to the address given with the job.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.RabbitMQ.DSN == "" {
				return errors.New("worker needs CARGOLOAD_RABBITMQ_DSN")
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

			logger.Info("worker started", "queue", cfg.RabbitMQ.Queue)
			err = b.queue.Consume(ctx, b.svc.HandleJob)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("worker stopped")
			return nil
		},
	}
}
