package engine

import (
	"fmt"
	"log/slog"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// Group identifies which split direction produced a free space.
type Group int

const (
	GroupSide Group = iota
	GroupTop
	GroupFront
)

func (g Group) String() string {
	switch g {
	case GroupTop:
		return "top"
	case GroupFront:
		return "front"
	default:
		return "side"
	}
}

// FreeSpace is an empty region of the container that can receive a box.
// Origin is the box type whose placement created it; nil accepts any type.
type FreeSpace struct {
	model.Space
	Group  Group
	Origin *int
}

// NewFreeSpace returns an untagged free space covering the given region.
func NewFreeSpace(pos model.Position, size model.Size, group Group) *FreeSpace {
	return &FreeSpace{Space: model.Space{Position: pos, Size: size}, Group: group}
}

// Accepts reports whether a box of the given size and type may go into the space.
func (fs *FreeSpace) Accepts(size model.Size, required *int) bool {
	if !fs.Size.Fits(size) {
		return false
	}
	return fs.Origin == nil || required == nil || *fs.Origin == *required
}

// Split carves a box of the occupied size out of the space's origin corner and
// returns the remaining side, top and front regions. Each slice holds at most one space.
//
//	side:  (x, y+iw, z)  size (il, w-iw, h)
//	top:   (x, y, z+ih)  size (il, iw, h-ih)
//	front: (x+il, y, z)  size (l-il, w, h)
func (fs *FreeSpace) Split(occupied model.Size, boxType int) (side, top, front []*FreeSpace) {
	if !occupied.Positive() {
		slog.Warn("split rejected: box size must be positive", "size", occupied.String())
		return nil, nil, nil
	}
	l, w, h := fs.Size.Length, fs.Size.Width, fs.Size.Height
	il, iw, ih := occupied.Length, occupied.Width, occupied.Height
	if il > l || iw > w || ih > h {
		slog.Warn("split rejected: box is larger than the space", "size", occupied.String(), "space", fs.Space.String())
		return nil, nil, nil
	}
	if err := fs.Position.Validate(); err != nil {
		slog.Warn("split rejected: space lies outside the container", "space", fs.Space.String(), "error", err)
		return nil, nil, nil
	}

	x, y, z := fs.Position.X, fs.Position.Y, fs.Position.Z
	origin := boxType
	if w-iw > 0 {
		side = []*FreeSpace{{
			Space:  model.Space{Position: model.Position{X: x, Y: y + iw, Z: z}, Size: model.Size{Length: il, Width: w - iw, Height: h}},
			Group:  GroupSide,
			Origin: &origin,
		}}
	}
	if h-ih > 0 {
		top = []*FreeSpace{{
			Space:  model.Space{Position: model.Position{X: x, Y: y, Z: z + ih}, Size: model.Size{Length: il, Width: iw, Height: h - ih}},
			Group:  GroupTop,
			Origin: &origin,
		}}
	}
	if l-il > 0 {
		front = []*FreeSpace{{
			Space:  model.Space{Position: model.Position{X: x + il, Y: y, Z: z}, Size: model.Size{Length: l - il, Width: w, Height: h}},
			Group:  GroupFront,
			Origin: &origin,
		}}
	}
	return side, top, front
}

func (fs *FreeSpace) clone() *FreeSpace {
	cp := *fs
	return &cp
}

func (fs *FreeSpace) String() string {
	if fs.Origin == nil {
		return fmt.Sprintf("%s %s", fs.Group, fs.Space)
	}
	return fmt.Sprintf("%s %s from type %d", fs.Group, fs.Space, *fs.Origin)
}
