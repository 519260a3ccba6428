package model

import (
	"encoding/json"
	"fmt"
)

// Position is a corner coordinate inside the container, in mm.
// X runs along the container length (depth), Y along its width and Z along its height.
type Position struct {
	X int `json:"x" validate:"gte=0"`
	Y int `json:"y" validate:"gte=0"`
	Z int `json:"z" validate:"gte=0"`
}

// NewPosition returns a Position, rejecting negative components.
func NewPosition(x, y, z int) (Position, error) {
	p := Position{X: x, Y: y, Z: z}
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// UnmarshalJSON decodes {"x", "y", "z"} through NewPosition.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw struct {
		X int `json:"x"`
		Y int `json:"y"`
		Z int `json:"z"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse position: %w", err)
	}
	pos, err := NewPosition(raw.X, raw.Y, raw.Z)
	if err != nil {
		return err
	}
	*p = pos
	return nil
}

// Validate reports an error if any component is negative.
func (p Position) Validate() error {
	switch {
	case p.X < 0:
		return fmt.Errorf("position x must be non-negative, got %d", p.X)
	case p.Y < 0:
		return fmt.Errorf("position y must be non-negative, got %d", p.Y)
	case p.Z < 0:
		return fmt.Errorf("position z must be non-negative, got %d", p.Z)
	}
	return nil
}

func (p Position) String() string {
	return fmt.Sprintf("(x=%d, y=%d, z=%d)", p.X, p.Y, p.Z)
}

// Size is an axis-aligned extent in mm.
type Size struct {
	Length int `json:"length" validate:"gt=0"`
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

// Volume returns length * width * height in mm³.
func (s Size) Volume() int {
	return s.Length * s.Width * s.Height
}

// Fits reports whether other can be placed inside s without rotation:
// s must dominate other in volume and on every axis.
func (s Size) Fits(other Size) bool {
	return s.Volume() >= other.Volume() &&
		s.Length >= other.Length &&
		s.Width >= other.Width &&
		s.Height >= other.Height
}

// Rotated returns the size turned 90° around the vertical axis.
func (s Size) Rotated() Size {
	return Size{Length: s.Width, Width: s.Length, Height: s.Height}
}

// Positive reports whether every dimension is greater than zero.
func (s Size) Positive() bool {
	return s.Length > 0 && s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Length, s.Width, s.Height)
}

// Space is a rectangular volume anchored at its bottom-left-back corner.
type Space struct {
	Position Position `json:"position"`
	Size     Size     `json:"size"`
}

// End returns the corner opposite to Position.
func (s Space) End() Position {
	return Position{
		X: s.Position.X + s.Size.Length,
		Y: s.Position.Y + s.Size.Width,
		Z: s.Position.Z + s.Size.Height,
	}
}

// Overlaps reports whether two spaces share interior volume. Touching faces do not count.
func (s Space) Overlaps(o Space) bool {
	a, b := s.End(), o.End()
	return s.Position.X < b.X && o.Position.X < a.X &&
		s.Position.Y < b.Y && o.Position.Y < a.Y &&
		s.Position.Z < b.Z && o.Position.Z < a.Z
}

// Contains reports whether o lies completely inside s.
func (s Space) Contains(o Space) bool {
	a, b := s.End(), o.End()
	return s.Position.X <= o.Position.X && s.Position.Y <= o.Position.Y && s.Position.Z <= o.Position.Z &&
		b.X <= a.X && b.Y <= a.Y && b.Z <= a.Z
}

func (s Space) String() string {
	return fmt.Sprintf("%s %s", s.Position, s.Size)
}
