package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// loadingProblem is a 100³ container with two box types:
// A 50³ (max 2, value 10) and B 100×100×25 (max 4, value 5).
func loadingProblem() *model.Problem {
	a := model.NewBoxType(0, "A", 50, 50, 50, 0, 2)
	a.Value = 10
	b := model.NewBoxType(1, "B", 100, 100, 25, 0, 4)
	b.Value = 5
	p := model.NewProblem(model.Size{Length: 100, Width: 100, Height: 100}, []model.BoxType{a, b})
	p.ID = "loading"
	return &p
}

// randomProblem builds a problem whose values equal box volumes.
func randomProblem(seed int64, types int) *model.Problem {
	rng := rand.New(rand.NewSource(seed))
	container := model.Size{Length: 1200, Width: 500, Height: 500}
	boxTypes := make([]model.BoxType, types)
	for i := range boxTypes {
		l, w, h := 100+rng.Intn(200), 100+rng.Intn(200), 100+rng.Intn(200)
		maxCount := 1 + container.Volume()/types/(l*w*h)
		boxTypes[i] = model.NewBoxType(i, fmt.Sprintf("T%d", i), l, w, h, 0, maxCount)
	}
	p := model.NewProblem(container, boxTypes)
	p.ID = fmt.Sprintf("random-%d", seed)
	return &p
}

func geneFor(p *model.Problem, boxType, count int, rotated bool) Gene {
	return NewGene(p.FindBoxType(boxType), count, rotated)
}

// assertPlacementValid checks that boxes stay inside the container and never overlap.
func assertPlacementValid(t *testing.T, container model.Size, boxes []model.Box) {
	t.Helper()
	bounds := model.Space{Size: container}
	for i, a := range boxes {
		if !bounds.Contains(a.Space()) {
			t.Errorf("box %d %s is outside the container", i, a.Space())
		}
		for j := i + 1; j < len(boxes); j++ {
			if a.Space().Overlaps(boxes[j].Space()) {
				t.Errorf("box %d %s overlaps box %d %s", i, a.Space(), j, boxes[j].Space())
			}
		}
	}
}

// assertGeneSet checks that every box type of p appears exactly once.
func assertGeneSet(t *testing.T, p *model.Problem, c *Chromosome) {
	t.Helper()
	if err := checkGeneSet("test", c.Genes, len(p.BoxTypes)); err != nil {
		t.Error(err)
	}
	for _, g := range c.Genes {
		if p.FindBoxType(g.Type.Type) == nil {
			t.Errorf("gene references unknown type %d", g.Type.Type)
		}
	}
}
