package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/model"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunStore persists run summaries.
type RunStore interface {
	InsertRun(ctx context.Context, run *model.Run) error
	UpdateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, problemID string, limit int) ([]*model.Run, error)
}

// Repository is the Postgres implementation of RunStore.
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// OpenDB creates the connection pool through the pgx driver and pings it.
func OpenDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(config.Seconds(cfg.Database.MaxIdleTime))

	ctx, cancel := context.WithTimeout(ctx, config.Seconds(cfg.Database.ConnectTimeout))
	defer cancel()

	// sql.Open does not connect
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return dbpool, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		problem_id  TEXT NOT NULL,
		improvement TEXT NOT NULL,
		status      TEXT NOT NULL,
		best_value  DOUBLE PRECISION NOT NULL DEFAULT 0,
		occupancy   DOUBLE PRECISION NOT NULL DEFAULT 0,
		boxes       INTEGER NOT NULL DEFAULT 0,
		generations INTEGER NOT NULL DEFAULT 0,
		duration    DOUBLE PRECISION NOT NULL DEFAULT 0,
		interrupted BOOLEAN NOT NULL DEFAULT FALSE,
		error       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS runs_problem_id_idx ON runs (problem_id, created_at DESC);
`

// EnsureSchema creates the runs table when it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.Seconds(r.cfg.Database.QueryTimeout))
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
