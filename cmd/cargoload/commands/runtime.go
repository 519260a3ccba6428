package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/metrics"
	"github.com/piwi3910/CargoLoad/internal/notify"
	"github.com/piwi3910/CargoLoad/internal/queue"
	"github.com/piwi3910/CargoLoad/internal/repository"
	"github.com/piwi3910/CargoLoad/internal/service"
	"github.com/piwi3910/CargoLoad/internal/storage"
)

// backend holds the connections shared by the API server and the worker.
type backend struct {
	svc     *service.Service
	metrics *metrics.Metrics
	queue   *queue.Client
	closers []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openBackend connects storage, the run store, the job queue and the notifier.
// Postgres and RabbitMQ are optional: without a DSN runs are kept in memory and
// jobs are disabled.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{metrics: metrics.New()}

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, closeStore)

	var runs repository.RunStore
	if cfg.Database.DSN != "" {
		db, err := repository.OpenDB(ctx, cfg)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		repo := repository.NewRepository(cfg, db)
		if err := repo.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		runs = repo
	} else {
		logger.Warn("no database configured, runs are kept in memory")
		runs = repository.NewMemoryStore()
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.SMTP.Host != "" {
		mailer, err := notify.NewMailNotifier(cfg)
		if err != nil {
			b.Close()
			return nil, err
		}
		notifier = mailer
	}

	b.svc = &service.Service{
		Catalog:  storage.NewCatalog(store),
		Runs:     runs,
		Notifier: notifier,
		Metrics:  b.metrics,
		Logger:   logger,
	}

	if cfg.RabbitMQ.DSN != "" {
		client, err := queue.Dial(cfg, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, client.Close)
		b.queue = client
		b.svc.Jobs = client
	} else {
		logger.Warn("no rabbitmq configured, job submission is disabled")
	}

	logger.Info("backend ready",
		"storage", cfg.Storage.Backend,
		"database", cfg.Database.DSN != "",
		"queue", b.queue != nil,
		"mail", cfg.SMTP.Host != "")
	return b, nil
}
