package engine

import (
	"math/rand"
	"testing"

	"github.com/piwi3910/CargoLoad/internal/model"
)

func TestGeneSizeHonoursRotation(t *testing.T) {
	bt := model.NewBoxType(0, "", 30, 20, 10, 0, 1)
	g := NewGene(&bt, 1, false)
	if g.Size() != (model.Size{Length: 30, Width: 20, Height: 10}) {
		t.Errorf("unexpected size %s", g.Size())
	}
	g.MutateRotation()
	if g.Size() != (model.Size{Length: 20, Width: 30, Height: 10}) {
		t.Errorf("unexpected rotated size %s", g.Size())
	}
	if g.Rotation() != 1 {
		t.Errorf("expected rotation 1, got %d", g.Rotation())
	}
	if bt.Size.Length != 30 {
		t.Error("rotation must not modify the box type")
	}
}

func TestMutateQuantityStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bt := model.NewBoxType(0, "", 1, 1, 1, 95, 104)
	g := NewGene(&bt, 100, false)
	for i := 0; i < 200; i++ {
		before := g.Count
		changed := g.MutateQuantity(rng, 0.1)
		if g.Count < bt.MinCount || g.Count > bt.MaxCount {
			t.Fatalf("count %d escaped [%d, %d]", g.Count, bt.MinCount, bt.MaxCount)
		}
		if changed != (before != g.Count) {
			t.Fatalf("changed=%v but count went %d -> %d", changed, before, g.Count)
		}
	}
}

func TestMutateQuantityFixedBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bt := model.NewBoxType(0, "", 1, 1, 1, 3, 3)
	g := NewGene(&bt, 3, false)
	for i := 0; i < 20; i++ {
		if g.MutateQuantity(rng, 0.1) {
			t.Fatal("a type with min == max can never change count")
		}
	}
}
