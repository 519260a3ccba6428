package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/model"
)

const runColumns = `id, problem_id, improvement, status, best_value, occupancy, boxes, generations, duration, interrupted, error, created_at, updated_at`

func (r *Repository) InsertRun(ctx context.Context, run *model.Run) error {
	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	ctx, cancel := context.WithTimeout(ctx, config.Seconds(r.cfg.Database.QueryTimeout))
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, runArgs(run)...)
	return err
}

func (r *Repository) UpdateRun(ctx context.Context, run *model.Run) error {
	query := `
		UPDATE runs
		SET
			status = $2,
			best_value = $3,
			occupancy = $4,
			boxes = $5,
			generations = $6,
			duration = $7,
			interrupted = $8,
			error = $9,
			updated_at = $10
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, config.Seconds(r.cfg.Database.QueryTimeout))
	defer cancel()

	args := []any{run.ID, string(run.Status), run.BestValue, run.Occupancy, run.Boxes, run.Generations, run.Duration, run.Interrupted, run.Error, run.UpdatedAt}
	res, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *Repository) GetRun(ctx context.Context, id string) (*model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, config.Seconds(r.cfg.Database.QueryTimeout))
	defer cancel()

	run, err := scanRun(r.dbpool.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns the newest runs first. An empty problemID lists every problem.
func (r *Repository) ListRuns(ctx context.Context, problemID string, limit int) ([]*model.Run, error) {
	query := `
		SELECT ` + runColumns + ` FROM runs
		WHERE $1 = '' OR problem_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	ctx, cancel := context.WithTimeout(ctx, config.Seconds(r.cfg.Database.QueryTimeout))
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, problemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*model.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	run := &model.Run{}
	var improvement, status string
	dst := []any{&run.ID, &run.ProblemID, &improvement, &status, &run.BestValue, &run.Occupancy, &run.Boxes, &run.Generations, &run.Duration, &run.Interrupted, &run.Error, &run.CreatedAt, &run.UpdatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	g, err := model.ParseGroupImprovement(improvement)
	if err != nil {
		return nil, err
	}
	run.Improvement = g
	run.Status = model.RunStatus(status)
	return run, nil
}

func runArgs(run *model.Run) []any {
	return []any{
		run.ID, run.ProblemID, run.Improvement.String(), string(run.Status),
		run.BestValue, run.Occupancy, run.Boxes, run.Generations, run.Duration, run.Interrupted, run.Error,
		run.CreatedAt, run.UpdatedAt,
	}
}
