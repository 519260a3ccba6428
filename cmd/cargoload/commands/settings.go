package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

// solver flag name -> viper key
var solveFlagKeys = map[string]string{
	"population":      "solver.population_size",
	"tournament":      "solver.tournament_size",
	"crossover":       "solver.crossover_rate",
	"mutation":        "solver.mutation_rate",
	"gene-mutation":   "solver.gene_mutation_rate",
	"generations":     "solver.max_generations",
	"stop-unimproved": "solver.stop_unimproved",
	"max-duration":    "solver.max_duration",
	"improvement":     "solver.improvement",
	"seed":            "solver.seed",
	"workers":         "solver.workers",
}

func addSolveFlags(f *pflag.FlagSet) {
	d := model.DefaultSettings()
	f.Int("population", d.PopulationSize, "individuals per generation")
	f.Int("tournament", d.TournamentSize, "individuals drawn per tournament")
	f.Float64("crossover", d.CrossoverRate, "probability a selected pair is crossed")
	f.Float64("mutation", d.MutationRate, "probability an individual is mutated")
	f.Float64("gene-mutation", d.GeneMutationRate, "per-gene mutation probability (0 means 1/types)")
	f.Int("generations", d.MaxGenerations, "stop after this many generations (0 disables)")
	f.Int("stop-unimproved", d.StopUnimproved, "stop after this many generations without improvement (0 disables)")
	f.Duration("max-duration", d.MaxDuration, "stop after this much wall time (0 disables)")
	f.String("improvement", d.Improvement.String(), "group improvement: none, during, late_all, late_some, late_best")
	f.Int64("seed", d.Seed, "random seed")
	f.Int("workers", d.Workers, "parallel evaluations per generation")
}

// bindSolveFlags ties the flags of the running command to viper. It must be
// called from PreRunE so that only one command owns the keys.
func bindSolveFlags(v *viper.Viper, f *pflag.FlagSet) error {
	for name, key := range solveFlagKeys {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// solveSettings layers the built-in defaults, the saved app config and any
// value set in the config file, environment or on the command line.
func (c *cli) solveSettings() (model.SolveSettings, error) {
	s := model.DefaultSettings()
	appCfg, err := project.LoadAppConfig(project.DefaultConfigPath())
	if err != nil {
		return s, err
	}
	appCfg.ApplyToSettings(&s)

	v := c.v
	if v.IsSet("solver.population_size") {
		s.PopulationSize = v.GetInt("solver.population_size")
	}
	if v.IsSet("solver.tournament_size") {
		s.TournamentSize = v.GetInt("solver.tournament_size")
	}
	if v.IsSet("solver.crossover_rate") {
		s.CrossoverRate = v.GetFloat64("solver.crossover_rate")
	}
	if v.IsSet("solver.mutation_rate") {
		s.MutationRate = v.GetFloat64("solver.mutation_rate")
	}
	if v.IsSet("solver.gene_mutation_rate") {
		s.GeneMutationRate = v.GetFloat64("solver.gene_mutation_rate")
	}
	if v.IsSet("solver.max_generations") {
		s.MaxGenerations = v.GetInt("solver.max_generations")
	}
	if v.IsSet("solver.stop_unimproved") {
		s.StopUnimproved = v.GetInt("solver.stop_unimproved")
	}
	if v.IsSet("solver.max_duration") {
		s.MaxDuration = v.GetDuration("solver.max_duration")
	}
	if v.IsSet("solver.improvement") {
		g, err := model.ParseGroupImprovement(v.GetString("solver.improvement"))
		if err != nil {
			return s, err
		}
		s.Improvement = g
	}
	if v.IsSet("solver.seed") {
		s.Seed = v.GetInt64("solver.seed")
	}
	if v.IsSet("solver.workers") {
		s.Workers = v.GetInt("solver.workers")
	}

	if !s.HasStopCondition() {
		return s, fmt.Errorf("at least one of --generations, --stop-unimproved or --max-duration must be set")
	}
	return s, nil
}

// signalContext cancels on interrupt so a run can stop and keep its best solution.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// loadProblems reads problem files, or an OR-Library set when source is set.
func loadProblems(ctx context.Context, paths []string, orlib string) ([]model.Problem, error) {
	if orlib != "" {
		source := orlib
		if !strings.Contains(source, "/") && !strings.Contains(source, ".") {
			source = project.ORLibraryURL(source)
		}
		return project.LoadORLibrary(ctx, source)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no problem file given")
	}
	var problems []model.Problem
	for _, path := range paths {
		loaded, err := project.LoadProblems(path)
		if err != nil {
			return nil, err
		}
		problems = append(problems, loaded...)
	}
	return problems, nil
}

// selectProblem returns the problem with the given id, or the first one.
func selectProblem(problems []model.Problem, id string) (model.Problem, error) {
	if len(problems) == 0 {
		return model.Problem{}, fmt.Errorf("no problems loaded")
	}
	if id == "" {
		return problems[0], nil
	}
	for _, p := range problems {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Problem{}, fmt.Errorf("problem %q not found", id)
}

// parseSize reads a LxWxH size in mm.
func parseSize(s string) (model.Size, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 3 {
		return model.Size{}, fmt.Errorf("size %q must be LxWxH", s)
	}
	var dims [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return model.Size{}, fmt.Errorf("size %q has invalid dimension %q", s, p)
		}
		dims[i] = n
	}
	return model.Size{Length: dims[0], Width: dims[1], Height: dims[2]}, nil
}

// containerSize resolves a size flag or an inventory preset name.
func containerSize(size, name string) (model.Size, error) {
	if size != "" {
		return parseSize(size)
	}
	inv, _, err := project.LoadOrCreateInventory()
	if err != nil {
		return model.Size{}, err
	}
	if name == "" {
		name = model.DefaultContainerName
	}
	preset := inv.FindContainerByName(name)
	if preset == nil {
		return model.Size{}, fmt.Errorf("container %q not in inventory", name)
	}
	return preset.Size, nil
}
