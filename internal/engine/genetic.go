package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/piwi3910/CargoLoad/internal/model"
)

var tracer = otel.Tracer("cargoload/engine")

// Config holds parameters for the genetic algorithm. Zero stop bounds are unbounded.
type Config struct {
	TournamentSize   int
	CrossoverRate    float64
	MutationRate     float64
	GeneMutationRate float64
	MaxGenerations   int
	StopUnimproved   int
	MaxDuration      time.Duration
	Logger           *slog.Logger

	// OnGeneration is called after every generation with the best value history.
	OnGeneration func(bestValues []float64, pop *Population)
}

// DefaultConfig returns the standard parameters with a five minute time budget.
func DefaultConfig() Config {
	return ConfigFromSettings(model.DefaultSettings(), 0)
}

// ConfigFromSettings converts run settings for a problem with the given number of box types.
func ConfigFromSettings(s model.SolveSettings, types int) Config {
	return Config{
		TournamentSize:   s.TournamentSize,
		CrossoverRate:    s.CrossoverRate,
		MutationRate:     s.MutationRate,
		GeneMutationRate: s.EffectiveGeneMutationRate(types),
		MaxGenerations:   s.MaxGenerations,
		StopUnimproved:   s.StopUnimproved,
		MaxDuration:      s.MaxDuration,
	}
}

// State is the lifecycle of a GeneticAlgorithm.
type State int

const (
	StateReady State = iota
	StateRunning
	StateTerminated
)

// GeneticAlgorithm evolves a population towards the highest packed value.
type GeneticAlgorithm struct {
	pop    *Population
	cfg    Config
	logger *slog.Logger
	state  State
	stats  model.Stats
}

// New validates the configuration against the population.
func New(pop *Population, cfg Config) (*GeneticAlgorithm, error) {
	if cfg.MaxGenerations <= 0 && cfg.StopUnimproved <= 0 && cfg.MaxDuration <= 0 {
		return nil, ErrNoStopCondition
	}
	if pop.Len() < 2 {
		return nil, fmt.Errorf("%w: population needs at least 2 individuals, got %d", ErrInvalidConfig, pop.Len())
	}
	if cfg.TournamentSize < 1 || cfg.TournamentSize >= pop.Len() {
		return nil, fmt.Errorf("%w: tournament size %d must be between 1 and %d", ErrInvalidConfig, cfg.TournamentSize, pop.Len()-1)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GeneticAlgorithm{pop: pop, cfg: cfg, logger: logger}, nil
}

func (ga *GeneticAlgorithm) State() State { return ga.state }
func (ga *GeneticAlgorithm) Stats() model.Stats { return ga.stats }
func (ga *GeneticAlgorithm) Population() *Population { return ga.pop }

// Run evolves the population until a stop bound is reached or ctx is done.
// Cancellation is not an error: the run ends and Stats reports Interrupted.
func (ga *GeneticAlgorithm) Run(ctx context.Context) (model.Stats, error) {
	problem := ga.pop.Problem()
	ctx, span := tracer.Start(ctx, "GeneticAlgorithm.Run", trace.WithAttributes(
		attribute.String("problem.id", problem.ID),
		attribute.Int("problem.types", len(problem.BoxTypes)),
		attribute.Int("problem.demand_volume", problem.MaxVolume()),
		attribute.String("group_improvement", ga.pop.Policy().String()),
		attribute.Int("population", ga.pop.Len()),
	))
	defer span.End()

	ga.state = StateRunning
	defer func() { ga.state = StateTerminated }()

	if err := ga.pop.Evaluate(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Stats{}, fmt.Errorf("failed to evaluate initial population: %w", err)
	}

	var defaultMax *model.Fitness
	if dm := ga.pop.DefaultMax(); dm != nil {
		f := dm.Fitness()
		defaultMax = &f
	}
	initial := ga.pop.BestFitness()
	elite := ga.pop.Best().Clone()

	bestValues := []float64{elite.Objective()}
	bestBoxes := []int{elite.Fitness().Boxes}
	var generationsTime []float64

	start := time.Now()
	genStart := start
	generation, unimproved := 0, 0
	interrupted := false

	ga.logger.Info("genetic algorithm started",
		"problem", problem.ID,
		"types", len(problem.BoxTypes),
		"demand_volume", problem.MaxVolume(),
		"container_volume", problem.Container.Volume(),
		"policy", ga.pop.Policy().String(),
		"initial_best", elite.Objective())

	for !ga.shouldStop(generation, unimproved, time.Since(start)) {
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		next, err := ga.selectWithCrossover()
		if err != nil {
			return ga.fail(span, err)
		}
		if _, err := next.Mutate(ga.cfg.MutationRate, ga.cfg.GeneMutationRate); err != nil {
			return ga.fail(span, err)
		}
		if err := next.Evaluate(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				interrupted = true
				break
			}
			return ga.fail(span, err)
		}
		ga.pop = next

		best := ga.pop.Best()
		switch {
		case best.Objective() > elite.Objective():
			elite = best.Clone()
			unimproved = 0
		case best.Objective() < elite.Objective():
			ga.pop.ReplaceWorst(elite.Clone())
			unimproved++
		default:
			unimproved++
		}

		best = ga.pop.Best()
		bestValues = append(bestValues, best.Objective())
		bestBoxes = append(bestBoxes, best.Fitness().Boxes)
		generation++

		span.AddEvent("generation", trace.WithAttributes(
			attribute.Int("generation", generation),
			attribute.Float64("best_value", best.Objective()),
			attribute.Int("unimproved", unimproved),
		))
		ga.logger.Debug("generation finished",
			"generation", generation,
			"best_value", best.Objective(),
			"unimproved", unimproved)

		if ga.cfg.OnGeneration != nil {
			ga.cfg.OnGeneration(bestValues, ga.pop)
		}

		now := time.Now()
		generationsTime = append(generationsTime, round2(now.Sub(genStart).Seconds()))
		genStart = now
	}

	end := time.Now()
	best := ga.pop.Best()
	ga.stats = model.Stats{
		BestValue:        best.Fitness(),
		ProblemID:        problem.ID,
		TypesCount:       len(problem.BoxTypes),
		GroupImprovement: ga.pop.Policy(),
		Generations:      generation,
		BestValues:       bestValues,
		BestBoxes:        bestBoxes,
		Timings: model.Timings{
			Start:           start.Unix(),
			End:             end.Unix(),
			Duration:        round2(end.Sub(start).Seconds()),
			GenerationsTime: generationsTime,
		},
		DefaultMaxFitness: defaultMax,
		InitialBest:       initial,
		BestSolution:      best.Assignments(),
		Placements:        best.Result(),
		Interrupted:       interrupted,
	}

	span.SetAttributes(
		attribute.Int("generations", generation),
		attribute.Float64("best_value", best.Objective()),
		attribute.Bool("interrupted", interrupted),
	)
	ga.logger.Info("genetic algorithm finished",
		"problem", problem.ID,
		"generations", generation,
		"best_value", best.Objective(),
		"duration", end.Sub(start).Round(time.Millisecond).String(),
		"interrupted", interrupted)
	return ga.stats, nil
}

func (ga *GeneticAlgorithm) fail(span trace.Span, err error) (model.Stats, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return model.Stats{}, err
}

func (ga *GeneticAlgorithm) shouldStop(generation, unimproved int, elapsed time.Duration) bool {
	return (ga.cfg.MaxGenerations > 0 && generation >= ga.cfg.MaxGenerations) ||
		(ga.cfg.StopUnimproved > 0 && unimproved >= ga.cfg.StopUnimproved) ||
		(ga.cfg.MaxDuration > 0 && elapsed >= ga.cfg.MaxDuration)
}

// selectWithCrossover builds a same-sized population from tournament winners.
// Pairs drawn from the same individual are skipped.
func (ga *GeneticAlgorithm) selectWithCrossover() (*Population, error) {
	size := ga.pop.Len()
	next := ga.pop.empty()
	for next.Len() < size {
		a := ga.pop.Tournament(ga.cfg.TournamentSize)
		b := ga.pop.Tournament(ga.cfg.TournamentSize)
		if a == b {
			continue
		}
		if ga.pop.rng.Float64() < ga.cfg.CrossoverRate {
			c1, c2, err := a.Crossover(b, ga.pop.rng)
			if err != nil {
				return nil, err
			}
			next.Append(c1)
			next.Append(c2)
		} else {
			next.Append(a.Clone())
			next.Append(b.Clone())
		}
	}
	next.truncate(size)
	return next, nil
}

// Solve builds the initial population for problem and runs the algorithm with the given settings.
func Solve(ctx context.Context, problem *model.Problem, settings model.SolveSettings, logger *slog.Logger) (model.Stats, error) {
	if err := problem.Validate(); err != nil {
		return model.Stats{}, fmt.Errorf("failed to validate problem %s: %w", problem.ID, err)
	}
	rng := rand.New(rand.NewSource(settings.Seed))
	pop := NewPopulation(problem, settings.Improvement, rng).
		WithWorkers(settings.Workers).
		WithLogger(logger).
		GenerateInitial(settings.PopulationSize)

	cfg := ConfigFromSettings(settings, len(problem.BoxTypes))
	cfg.Logger = logger
	ga, err := New(pop, cfg)
	if err != nil {
		return model.Stats{}, err
	}
	return ga.Run(ctx)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
