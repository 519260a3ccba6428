package engine

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"slices"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// Population is one generation of chromosomes for a single problem.
// Ranking is lazy: Evaluate sorts individuals by objective, best first.
type Population struct {
	problem     *model.Problem
	policy      model.GroupImprovement
	individuals []*Chromosome
	evaluated   bool
	workers     int
	rng         *rand.Rand
	logger      *slog.Logger
}

// NewPopulation creates an empty population. The problem must not be modified afterwards;
// genes point into its box types.
func NewPopulation(problem *model.Problem, policy model.GroupImprovement, rng *rand.Rand) *Population {
	return &Population{
		problem: problem,
		policy:  policy,
		rng:     rng,
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithWorkers sets how many chromosomes are evaluated concurrently.
func (p *Population) WithWorkers(n int) *Population {
	p.workers = max(n, 1)
	return p
}

// WithLogger sets the logger. A nil logger is ignored.
func (p *Population) WithLogger(logger *slog.Logger) *Population {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// empty returns a population sharing problem, policy, rng and settings but no individuals.
func (p *Population) empty() *Population {
	return &Population{
		problem: p.problem,
		policy:  p.policy,
		rng:     p.rng,
		workers: p.workers,
		logger:  p.logger,
	}
}

func (p *Population) Problem() *model.Problem { return p.problem }
func (p *Population) Policy() model.GroupImprovement { return p.policy }
func (p *Population) Len() int { return len(p.individuals) }
func (p *Population) Individuals() []*Chromosome { return p.individuals }

// Append adds an individual and marks the population for re-evaluation.
func (p *Population) Append(c *Chromosome) {
	p.individuals = append(p.individuals, c)
	p.evaluated = false
}

// GenerateInitial replaces the individuals with one all-max chromosome, one all-min
// chromosome and count-2 random ones. Gene order is shuffled per individual.
func (p *Population) GenerateInitial(count int) *Population {
	p.individuals = p.individuals[:0]
	p.evaluated = false
	for i := 0; i < count; i++ {
		genes := make([]Gene, len(p.problem.BoxTypes))
		for j := range p.problem.BoxTypes {
			bt := &p.problem.BoxTypes[j]
			switch i {
			case 0:
				genes[j] = NewGene(bt, bt.MaxCount, false)
			case 1:
				genes[j] = NewGene(bt, bt.MinCount, false)
			default:
				n := bt.MinCount + p.rng.Intn(bt.MaxCount-bt.MinCount+1)
				genes[j] = NewGene(bt, n, p.rng.Intn(2) == 1)
			}
		}
		p.rng.Shuffle(len(genes), func(a, b int) { genes[a], genes[b] = genes[b], genes[a] })
		c := NewChromosome(genes, p.problem.Container)
		c.isMaxInitial = i == 0
		p.individuals = append(p.individuals, c)
	}
	return p
}

// Evaluate evaluates every pending individual, applies the group improvement
// policy and ranks the population. It does nothing if already evaluated.
func (p *Population) Evaluate(ctx context.Context) error {
	if p.evaluated {
		return nil
	}
	mode := model.ImprovementNone
	if p.policy == model.ImprovementDuring {
		mode = model.ImprovementDuring
	}
	if err := p.evaluateAll(ctx, mode); err != nil {
		return err
	}
	improve, ok := improvementPolicies[p.policy]
	if !ok {
		return invariantf("Population.Evaluate", "no handler for policy %s", p.policy)
	}
	if err := improve(p); err != nil {
		return err
	}
	p.evaluated = true
	return nil
}

func (p *Population) evaluateAll(ctx context.Context, mode model.GroupImprovement) error {
	if p.workers <= 1 {
		for _, c := range p.individuals {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.Evaluate(mode); err != nil {
				return err
			}
		}
		return nil
	}

	wp := pool.New().WithMaxGoroutines(p.workers).WithContext(ctx).WithCancelOnError()
	for _, c := range p.individuals {
		wp.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return c.Evaluate(mode)
		})
	}
	return wp.Wait()
}

// rank orders individuals by objective, best first. Ties keep their order.
func (p *Population) rank() {
	sort.SliceStable(p.individuals, func(i, j int) bool {
		return p.individuals[i].Objective() > p.individuals[j].Objective()
	})
}

// Best returns the individual with the highest objective, or nil when empty.
func (p *Population) Best() *Chromosome {
	var best *Chromosome
	for _, c := range p.individuals {
		if best == nil || c.Objective() > best.Objective() {
			best = c
		}
	}
	return best
}

// BestFitness returns the fitness of Best, or the zero fitness when empty.
func (p *Population) BestFitness() model.Fitness {
	if best := p.Best(); best != nil {
		return best.Fitness()
	}
	return model.Fitness{}
}

// DefaultMax returns the all-max seed individual if it is still in the population.
func (p *Population) DefaultMax() *Chromosome {
	for _, c := range p.individuals {
		if c.isMaxInitial {
			return c
		}
	}
	return nil
}

// Tournament draws k distinct individuals and returns the best of them.
func (p *Population) Tournament(k int) *Chromosome {
	if len(p.individuals) == 0 {
		return nil
	}
	k = min(max(k, 1), len(p.individuals))
	var winner *Chromosome
	for _, idx := range p.rng.Perm(len(p.individuals))[:k] {
		c := p.individuals[idx]
		if winner == nil || c.Objective() > winner.Objective() {
			winner = c
		}
	}
	return winner
}

// Mutate replaces each individual, with probability pMut, by a mutated copy.
// It reports how many individuals changed.
func (p *Population) Mutate(pMut, pGen float64) (int, error) {
	mutated := 0
	for i, c := range p.individuals {
		if p.rng.Float64() >= pMut {
			continue
		}
		m, changed, err := c.Mutate(p.rng, pGen)
		if err != nil {
			return mutated, err
		}
		if changed {
			p.individuals[i] = m
			mutated++
		}
	}
	if mutated > 0 {
		p.evaluated = false
	}
	return mutated, nil
}

// ReplaceWorst drops the last ranked individual and puts c at the front.
func (p *Population) ReplaceWorst(c *Chromosome) {
	if len(p.individuals) > 0 {
		p.individuals = p.individuals[:len(p.individuals)-1]
	}
	p.individuals = slices.Insert(p.individuals, 0, c)
}

// truncate keeps the first n individuals.
func (p *Population) truncate(n int) {
	if len(p.individuals) > n {
		p.individuals = p.individuals[:n]
	}
}
