package harness

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// Filter selects results with a CEL expression such as
// `value > 1000.0 && improvement == "late_best"`.
//
// Variables: problem, improvement (string); value, occupancy, initial, gain,
// duration (double); boxes, types, generations (int); interrupted (bool).
type Filter struct {
	expr string
	prg  cel.Program
}

// NewFilter compiles expr. The expression must evaluate to a bool.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("problem", cel.StringType),
		cel.Variable("improvement", cel.StringType),
		cel.Variable("value", cel.DoubleType),
		cel.Variable("occupancy", cel.DoubleType),
		cel.Variable("initial", cel.DoubleType),
		cel.Variable("gain", cel.DoubleType),
		cel.Variable("duration", cel.DoubleType),
		cel.Variable("boxes", cel.IntType),
		cel.Variable("types", cel.IntType),
		cel.Variable("generations", cel.IntType),
		cel.Variable("interrupted", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter program: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

func (f *Filter) String() string { return f.expr }

// Match evaluates the filter against one result.
func (f *Filter) Match(s model.Stats) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{
		"problem":     s.ProblemID,
		"improvement": s.GroupImprovement.String(),
		"value":       s.BestValue.Value,
		"occupancy":   s.BestValue.Occupancy,
		"initial":     s.InitialBest.Value,
		"gain":        s.Improvement(),
		"duration":    s.Timings.Duration,
		"boxes":       int64(s.BestValue.Boxes),
		"types":       int64(s.TypesCount),
		"generations": int64(s.Generations),
		"interrupted": s.Interrupted,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter on problem %s: %w", s.ProblemID, err)
	}
	match, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, not bool", out.Value())
	}
	return match, nil
}

// Apply keeps the results that match. A nil filter keeps everything.
func (f *Filter) Apply(results []model.Stats) ([]model.Stats, error) {
	if f == nil {
		return results, nil
	}
	kept := make([]model.Stats, 0, len(results))
	for _, s := range results {
		ok, err := f.Match(s)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, s)
		}
	}
	return kept, nil
}
