package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.SolveSettings
}

// ComparisonResult holds the run statistics and headline numbers for a single scenario.
type ComparisonResult struct {
	Scenario    ComparisonScenario
	Stats       model.Stats
	BestValue   float64
	Occupancy   float64
	Boxes       int
	Improvement float64 // best value gained over the initial population
	Generations int
}

// CompareScenarios solves the same problem once per scenario and returns the
// results in scenario order. Scenarios sharing a seed start from the same
// initial population.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, problem *model.Problem, logger *slog.Logger) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		stats, err := Solve(ctx, problem, scenario.Settings, logger)
		if err != nil {
			return results, fmt.Errorf("failed to run scenario %q: %w", scenario.Name, err)
		}
		results = append(results, ComparisonResult{
			Scenario:    scenario,
			Stats:       stats,
			BestValue:   stats.BestValue.Value,
			Occupancy:   stats.BestValue.Occupancy,
			Boxes:       stats.BestValue.Boxes,
			Improvement: stats.Improvement(),
			Generations: stats.Generations,
		})
	}

	return results, nil
}

// BuildStrategyScenarios returns one scenario per group improvement policy,
// each otherwise identical to the base settings.
func BuildStrategyScenarios(base model.SolveSettings) []ComparisonScenario {
	policies := model.AllGroupImprovements()
	scenarios := make([]ComparisonScenario, 0, len(policies))
	for _, policy := range policies {
		s := base
		s.Improvement = policy
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Group improvement %s", policy),
			Settings: s,
		})
	}
	return scenarios
}

// CompareStrategies runs every group improvement policy on the same problem.
func CompareStrategies(ctx context.Context, problem *model.Problem, base model.SolveSettings, logger *slog.Logger) ([]ComparisonResult, error) {
	return CompareScenarios(ctx, BuildStrategyScenarios(base), problem, logger)
}

// BestScenario returns the index of the result with the highest best value, or -1.
func BestScenario(results []ComparisonResult) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.BestValue > results[best].BestValue {
			best = i
		}
	}
	return best
}
