package model

import (
	"encoding/json"
	"testing"
)

func TestNewPositionRejectsNegative(t *testing.T) {
	if _, err := NewPosition(0, 0, 0); err != nil {
		t.Errorf("expected origin to be valid, got %v", err)
	}
	for _, p := range [][3]int{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}} {
		if _, err := NewPosition(p[0], p[1], p[2]); err == nil {
			t.Errorf("expected error for %v", p)
		}
	}
}

func TestPositionUnmarshalValidates(t *testing.T) {
	var b Box
	if err := json.Unmarshal([]byte(`{"position": {"x": 1, "y": 2, "z": 3}, "size": {"length": 1, "width": 1, "height": 1}}`), &b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Position != (Position{X: 1, Y: 2, Z: 3}) {
		t.Errorf("got %v", b.Position)
	}
	if err := json.Unmarshal([]byte(`{"position": {"x": 0, "y": -4, "z": 0}}`), &b); err == nil {
		t.Error("expected error for negative y")
	}
}

func TestSizeFits(t *testing.T) {
	space := Size{Length: 10, Width: 5, Height: 5}
	tests := []struct {
		name string
		item Size
		want bool
	}{
		{"exact", Size{10, 5, 5}, true},
		{"smaller", Size{4, 4, 4}, true},
		{"too long", Size{11, 1, 1}, false},
		{"too wide", Size{1, 6, 1}, false},
		{"too tall", Size{1, 1, 6}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := space.Fits(tt.item); got != tt.want {
				t.Errorf("Fits(%s) = %v, want %v", tt.item, got, tt.want)
			}
		})
	}
}

func TestSizeRotated(t *testing.T) {
	s := Size{Length: 3, Width: 2, Height: 1}
	r := s.Rotated()
	if r.Length != 2 || r.Width != 3 || r.Height != 1 {
		t.Errorf("unexpected rotation %s", r)
	}
	if s.String() != "3x2x1" {
		t.Errorf("unexpected string %s", s)
	}
}

func TestSpaceOverlapsAndContains(t *testing.T) {
	a := Space{Size: Size{10, 10, 10}}
	touching := Space{Position: Position{X: 10}, Size: Size{5, 5, 5}}
	inside := Space{Position: Position{X: 2, Y: 2, Z: 2}, Size: Size{3, 3, 3}}
	crossing := Space{Position: Position{X: 8, Y: 8, Z: 8}, Size: Size{5, 5, 5}}

	if a.Overlaps(touching) {
		t.Error("touching faces must not overlap")
	}
	if !a.Overlaps(inside) || !a.Contains(inside) {
		t.Error("inner space must overlap and be contained")
	}
	if !a.Overlaps(crossing) || a.Contains(crossing) {
		t.Error("crossing space must overlap but not be contained")
	}
	if end := crossing.End(); end != (Position{13, 13, 13}) {
		t.Errorf("unexpected end %s", end)
	}
}

func TestGroupImprovementParse(t *testing.T) {
	tests := map[string]GroupImprovement{
		"":          ImprovementNone,
		"none":      ImprovementNone,
		"during":    ImprovementDuring,
		"late-all":  ImprovementLateAll,
		"LATE_SOME": ImprovementLateSome,
		"late_best": ImprovementLateBest,
	}
	for in, want := range tests {
		got, err := ParseGroupImprovement(in)
		if err != nil || got != want {
			t.Errorf("ParseGroupImprovement(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseGroupImprovement("sometimes"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
