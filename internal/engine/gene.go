package engine

import (
	"fmt"
	"math/rand"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// Gene is one box type's placement decision: how many boxes and in which orientation.
type Gene struct {
	Type    *model.BoxType
	Count   int
	Rotated bool // turned 90° around the vertical axis
}

// NewGene creates a gene for the given box type.
func NewGene(bt *model.BoxType, count int, rotated bool) Gene {
	return Gene{Type: bt, Count: count, Rotated: rotated}
}

// Size returns the box size in the gene's orientation.
func (g Gene) Size() model.Size {
	if g.Rotated {
		return g.Type.Size.Rotated()
	}
	return g.Type.Size
}

// Rotation returns 1 when rotated and 0 otherwise.
func (g Gene) Rotation() int {
	if g.Rotated {
		return 1
	}
	return 0
}

// MutateQuantity scales the count by a random factor in [1-variation, 1+variation],
// truncates it and clamps it to the type's bounds. It reports whether the count changed.
func (g *Gene) MutateQuantity(rng *rand.Rand, variation float64) bool {
	factor := 1 + variation*(2*rng.Float64()-1)
	count := int(float64(g.Count) * factor)
	count = min(max(count, g.Type.MinCount), g.Type.MaxCount)
	if count == g.Count {
		return false
	}
	g.Count = count
	return true
}

// MutateRotation flips the orientation.
func (g *Gene) MutateRotation() {
	g.Rotated = !g.Rotated
}

func (g Gene) String() string {
	return fmt.Sprintf("type %d x%d rotation %d", g.Type.Type, g.Count, g.Rotation())
}
