package engine

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// Chromosome is a candidate solution: an ordered list of genes, one per box type.
// Evaluating it simulates the loading with a private DBLF.
type Chromosome struct {
	Genes []Gene

	container model.Size
	dblf      *DBLF
	result    []model.Box
	occupied  int
	boxes     int
	value     float64

	evaluated    bool
	improved     bool
	isMaxInitial bool
}

// NewChromosome creates an unevaluated chromosome for the given container.
func NewChromosome(genes []Gene, container model.Size) *Chromosome {
	return &Chromosome{Genes: genes, container: container}
}

// Evaluated reports whether Evaluate has run.
func (c *Chromosome) Evaluated() bool { return c.evaluated }

// Improved reports whether a late improvement pass has run.
func (c *Chromosome) Improved() bool { return c.improved }

// IsMaxInitial reports whether this individual was seeded with every count at its maximum.
func (c *Chromosome) IsMaxInitial() bool { return c.isMaxInitial }

// Result returns the placed boxes in load order.
func (c *Chromosome) Result() []model.Box { return c.result }

// Objective is the accumulated value, the quantity the algorithm maximizes.
func (c *Chromosome) Objective() float64 { return c.value }

// Fitness returns (occupancy rounded to 2 decimals, boxes, value).
func (c *Chromosome) Fitness() model.Fitness {
	occupancy := 0.0
	if vol := c.container.Volume(); vol > 0 {
		occupancy = math.Round(float64(c.occupied)/float64(vol)*100) / 100
	}
	return model.Fitness{Occupancy: occupancy, Boxes: c.boxes, Value: c.value}
}

// Assignments returns the (type, count, rotation) triple of every gene in order.
func (c *Chromosome) Assignments() []model.GeneAssignment {
	out := make([]model.GeneAssignment, len(c.Genes))
	for i, g := range c.Genes {
		out[i] = model.GeneAssignment{Type: g.Type.Type, Count: g.Count, Rotation: g.Rotation()}
	}
	return out
}

// Evaluate places the genes in order and records the resulting boxes.
// Counts are truncated to what actually fits. Calling it again is a no-op.
func (c *Chromosome) Evaluate(mode model.GroupImprovement) error {
	if c.evaluated {
		return nil
	}
	c.dblf = NewDBLF(c.container)
	c.result = nil
	c.occupied, c.boxes, c.value = 0, 0, 0

	during := mode == model.ImprovementDuring
	for i := range c.Genes {
		placed, err := c.place(i, c.Genes[i].Count, nil, during)
		if err != nil {
			return err
		}
		c.Genes[i].Count = placed
	}
	c.evaluated = true
	return nil
}

// EvaluateLate reuses the space pruned during evaluation. Each gene may add boxes
// up to its maximum count, but only into spaces its own type created.
func (c *Chromosome) EvaluateLate() error {
	if !c.evaluated {
		return invariantf("EvaluateLate", "chromosome has not been evaluated")
	}
	if c.improved || len(c.dblf.Unused()) == 0 {
		return nil
	}
	before := c.value
	c.dblf = newDBLFFromUnused(c.dblf.Unused())

	for i := range c.Genes {
		g := &c.Genes[i]
		required := g.Type.Type
		placed, err := c.place(i, g.Type.MaxCount-g.Count, &required, false)
		if err != nil {
			return err
		}
		g.Count += placed
	}

	if c.value < before {
		return invariantf("EvaluateLate", "value dropped from %.2f to %.2f", before, c.value)
	}
	c.improved = true
	return nil
}

// place loads up to goal boxes of gene i. In during mode the goal grows by one
// whenever it is reached and another box still fits in a side or top space.
func (c *Chromosome) place(i, goal int, required *int, during bool) (int, error) {
	g := c.Genes[i]
	size := g.Size()
	minPos := model.Position{X: math.MaxInt, Y: math.MaxInt, Z: math.MaxInt}
	var maxPos model.Position

	placed := 0
	for placed < goal {
		space, ok := c.dblf.FirstAvailable(size, required)
		if !ok {
			break
		}
		pos := space.Position
		if err := pos.Validate(); err != nil {
			return placed, invariantf("Evaluate", "box of type %d placed at %s: %v", g.Type.Type, pos, err)
		}
		minPos = model.Position{X: min(minPos.X, pos.X), Y: min(minPos.Y, pos.Y), Z: min(minPos.Z, pos.Z)}
		maxPos = model.Position{
			X: max(maxPos.X, pos.X+size.Length),
			Y: max(maxPos.Y, pos.Y+size.Width),
			Z: max(maxPos.Z, pos.Z+size.Height),
		}

		c.result = append(c.result, model.Box{Position: pos, Size: size, Type: g.Type.Type})
		c.occupied += size.Volume()
		c.boxes++
		c.value += g.Type.Value
		if c.value > float64(c.container.Volume()) {
			return placed, invariantf("Evaluate", "value %.2f exceeds container volume %d", c.value, c.container.Volume())
		}

		c.dblf.Remove(space)
		side, top, front := space.Split(size, g.Type.Type)
		c.dblf.Add(side, top, front)
		c.dblf.Compact()
		placed++

		if during && placed == goal && g.Type.MaxCount > placed {
			if _, ok := c.dblf.firstAvailableSideTop(size, required); ok {
				goal++
			}
		}
	}

	if placed > 0 {
		nextDepth := 0
		if i+1 < len(c.Genes) {
			nextDepth = c.Genes[i+1].Size().Length
		}
		c.dblf.RemoveUnreachable(minPos, maxPos, nextDepth)
	}
	return placed, nil
}

// Crossover performs one-point crossover. Each child keeps its own parent's genes
// up to the cut and takes the remaining types in the other parent's order.
func (c *Chromosome) Crossover(other *Chromosome, rng *rand.Rand) (*Chromosome, *Chromosome, error) {
	n := len(c.Genes)
	if n != len(other.Genes) {
		return nil, nil, invariantf("Crossover", "parents have %d and %d genes", n, len(other.Genes))
	}
	if n < 2 {
		return NewChromosome(slices.Clone(c.Genes), c.container), NewChromosome(slices.Clone(other.Genes), other.container), nil
	}
	k := 1 + rng.Intn(n-1)
	a, err := c.crossoverAt(other, k)
	if err != nil {
		return nil, nil, err
	}
	b, err := other.crossoverAt(c, k)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (c *Chromosome) crossoverAt(other *Chromosome, k int) (*Chromosome, error) {
	genes := slices.Clone(c.Genes[:k])
	present := make(map[int]bool, len(c.Genes))
	for _, g := range genes {
		present[g.Type.Type] = true
	}
	for _, g := range other.Genes {
		if !present[g.Type.Type] {
			genes = append(genes, g)
		}
	}
	if err := checkGeneSet("Crossover", genes, len(c.Genes)); err != nil {
		return nil, err
	}
	return NewChromosome(genes, c.container), nil
}

type mutationKind int

const (
	mutateInterchange mutationKind = iota
	mutateCount
	mutateRotation
)

// Mutate applies exactly one kind of mutation, chosen uniformly: swapping two genes,
// varying counts, or flipping rotations. Count and rotation hit each gene with
// probability pGen, falling back to one random gene when none is hit.
// It returns a new unevaluated chromosome, or the receiver and false when nothing changed.
func (c *Chromosome) Mutate(rng *rand.Rand, pGen float64) (*Chromosome, bool, error) {
	n := len(c.Genes)
	if n == 0 {
		return c, false, nil
	}
	genes := slices.Clone(c.Genes)
	changed := false

	switch mutationKind(rng.Intn(3)) {
	case mutateInterchange:
		if n >= 2 {
			pick := rng.Perm(n)[:2]
			genes[pick[0]], genes[pick[1]] = genes[pick[1]], genes[pick[0]]
			changed = true
		}
	case mutateCount:
		changed = mutateGenes(rng, pGen, n, func(i int) bool {
			return genes[i].MutateQuantity(rng, 0.1)
		})
	case mutateRotation:
		changed = mutateGenes(rng, pGen, n, func(i int) bool {
			genes[i].MutateRotation()
			return true
		})
	}

	if err := checkGeneSet("Mutate", genes, n); err != nil {
		return nil, false, err
	}
	if !changed {
		return c, false, nil
	}
	return NewChromosome(genes, c.container), true, nil
}

func mutateGenes(rng *rand.Rand, pGen float64, n int, mutate func(i int) bool) bool {
	hit, changed := false, false
	for i := 0; i < n; i++ {
		if rng.Float64() < pGen {
			hit = true
			if mutate(i) {
				changed = true
			}
		}
	}
	if !hit {
		changed = mutate(rng.Intn(n))
	}
	return changed
}

// checkGeneSet verifies that every box type appears exactly once.
func checkGeneSet(op string, genes []Gene, want int) error {
	if len(genes) != want {
		return invariantf(op, "expected %d genes, got %d", want, len(genes))
	}
	seen := make(map[int]bool, len(genes))
	for _, g := range genes {
		if seen[g.Type.Type] {
			return invariantf(op, "box type %d appears more than once", g.Type.Type)
		}
		seen[g.Type.Type] = true
	}
	return nil
}

// Clone returns a deep copy, evaluation state included.
func (c *Chromosome) Clone() *Chromosome {
	cp := *c
	cp.Genes = slices.Clone(c.Genes)
	cp.result = slices.Clone(c.result)
	if c.dblf != nil {
		cp.dblf = c.dblf.Clone()
	}
	return &cp
}

func (c *Chromosome) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Chromosome with %d genes\n", len(c.Genes))
	for _, g := range c.Genes {
		sb.WriteString(g.String())
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Fitness: %s", c.Fitness())
	return sb.String()
}
