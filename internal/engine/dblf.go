package engine

import (
	"log/slog"
	"slices"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// MaxDepthAllowed bounds how deep (along x) a reachable space may stay after pruning.
const MaxDepthAllowed = 600

// DBLF is a deepest-bottom-left-fill free-space manager. Spaces are kept in three
// ordered groups and scanned side, then top, then front. Spaces pruned as
// unreachable are kept in a side channel for late improvement.
type DBLF struct {
	side   []*FreeSpace
	top    []*FreeSpace
	front  []*FreeSpace
	unused []FreeSpace
}

// NewDBLF returns a manager holding a single side space that covers the container.
func NewDBLF(container model.Size) *DBLF {
	return &DBLF{side: []*FreeSpace{NewFreeSpace(model.Position{}, container, GroupSide)}}
}

// newDBLFFromUnused regroups pruned spaces into a fresh manager.
func newDBLFFromUnused(unused []FreeSpace) *DBLF {
	d := &DBLF{}
	for i := range unused {
		fs := unused[i]
		switch fs.Group {
		case GroupTop:
			d.top = append(d.top, &fs)
		case GroupFront:
			d.front = append(d.front, &fs)
		default:
			d.side = append(d.side, &fs)
		}
	}
	return d
}

// Len returns the number of spaces across all groups.
func (d *DBLF) Len() int {
	return len(d.side) + len(d.top) + len(d.front)
}

// All returns the concatenated side, top, front view.
func (d *DBLF) All() []*FreeSpace {
	all := make([]*FreeSpace, 0, d.Len())
	all = append(all, d.side...)
	all = append(all, d.top...)
	return append(all, d.front...)
}

// Unused returns the spaces pruned by RemoveUnreachable.
func (d *DBLF) Unused() []FreeSpace {
	return d.unused
}

func (d *DBLF) at(i int) *FreeSpace {
	if i < len(d.side) {
		return d.side[i]
	}
	i -= len(d.side)
	if i < len(d.top) {
		return d.top[i]
	}
	return d.front[i-len(d.top)]
}

// FirstAvailable returns the first space, in side/top/front order, that fits size
// and accepts the required type. A nil required type matches any space.
func (d *DBLF) FirstAvailable(size model.Size, required *int) (*FreeSpace, bool) {
	return firstAvailable(size, required, d.side, d.top, d.front)
}

// firstAvailableSideTop ignores front spaces so a probe cannot open a new row.
func (d *DBLF) firstAvailableSideTop(size model.Size, required *int) (*FreeSpace, bool) {
	return firstAvailable(size, required, d.side, d.top)
}

func firstAvailable(size model.Size, required *int, groups ...[]*FreeSpace) (*FreeSpace, bool) {
	for _, group := range groups {
		for _, fs := range group {
			if fs.Accepts(size, required) {
				return fs, true
			}
		}
	}
	return nil, false
}

// Remove deletes the given space by identity. It reports whether the space was found.
func (d *DBLF) Remove(fs *FreeSpace) bool {
	for _, group := range []*[]*FreeSpace{&d.side, &d.top, &d.front} {
		if i := slices.Index(*group, fs); i >= 0 {
			*group = slices.Delete(*group, i, i+1)
			return true
		}
	}
	return false
}

// Add appends new spaces to their groups. Spaces at a negative position are dropped.
func (d *DBLF) Add(side, top, front []*FreeSpace) {
	d.side = appendValid(d.side, side)
	d.top = appendValid(d.top, top)
	d.front = appendValid(d.front, front)
}

func appendValid(group, spaces []*FreeSpace) []*FreeSpace {
	for _, fs := range spaces {
		if err := fs.Position.Validate(); err != nil {
			slog.Warn("free space dropped", "space", fs.Space.String(), "error", err)
			continue
		}
		group = append(group, fs)
	}
	return group
}

// Merge appends every space of other, group by group.
func (d *DBLF) Merge(other *DBLF) {
	d.Add(other.side, other.top, other.front)
	d.unused = append(d.unused, other.unused...)
}

// Compact runs one coalescing sweep over the concatenated view. For each space,
// scanning backwards, the first earlier space that shares a face of identical
// extent absorbs it.
func (d *DBLF) Compact() {
	for i := d.Len() - 1; i > 0; i-- {
		next := d.at(i)
		for j := i - 1; j >= 0; j-- {
			if absorb(d.at(j), next) {
				d.Remove(next)
				break
			}
		}
	}
}

// absorb extends prev to cover next when the two are congruent neighbours.
func absorb(prev, next *FreeSpace) bool {
	p, n := &prev.Space, next.Space
	switch {
	case p.Position.X == n.Position.X && p.Position.Y == n.Position.Y &&
		p.Size.Length == n.Size.Length && p.Size.Width == n.Size.Width:
		if !touching(p.Position.Z, p.Size.Height, n.Position.Z, n.Size.Height) {
			return false
		}
		p.Position.Z = min(p.Position.Z, n.Position.Z)
		p.Size.Height += n.Size.Height
	case p.Position.Y == n.Position.Y && p.Position.Z == n.Position.Z &&
		p.Size.Width == n.Size.Width && p.Size.Height == n.Size.Height:
		if !touching(p.Position.X, p.Size.Length, n.Position.X, n.Size.Length) {
			return false
		}
		p.Position.X = min(p.Position.X, n.Position.X)
		p.Size.Length += n.Size.Length
	case p.Position.X == n.Position.X && p.Position.Z == n.Position.Z &&
		p.Size.Length == n.Size.Length && p.Size.Height == n.Size.Height:
		if !touching(p.Position.Y, p.Size.Width, n.Position.Y, n.Size.Width) {
			return false
		}
		p.Position.Y = min(p.Position.Y, n.Position.Y)
		p.Size.Width += n.Size.Width
	default:
		return false
	}
	return true
}

func touching(a, aLen, b, bLen int) bool {
	return a+aLen == b || b+bLen == a
}

// RemoveUnreachable prunes spaces left behind the rows just filled, where minPos and
// maxPos bound the boxes placed for the last gene. nextDepth is the length of the
// next gene's boxes, or 0 when there is none. Pruned volume goes to Unused.
func (d *DBLF) RemoveUnreachable(minPos, maxPos model.Position, nextDepth int) {
	changed := false

	for i := len(d.side) - 1; i >= 0; i-- {
		fs := d.side[i]
		if fs.Position.X >= minPos.X || fs.Position.Y >= maxPos.Y {
			continue
		}
		blocked := maxPos.Y - fs.Position.Y
		if fs.Size.Width > blocked {
			behind := *fs
			behind.Size.Width = blocked
			d.unused = append(d.unused, behind)
			fs.Size.Width -= blocked
			fs.Position.Y = maxPos.Y
		} else {
			d.unused = append(d.unused, *fs)
			d.side = slices.Delete(d.side, i, i+1)
		}
		changed = true
	}

	for i := len(d.top) - 1; i >= 0; i-- {
		fs := d.top[i]
		if fs.Position.X < minPos.X && fs.Position.Z < maxPos.Z {
			d.unused = append(d.unused, *fs)
			d.top = slices.Delete(d.top, i, i+1)
			changed = true
		}
	}

	for i := len(d.front) - 1; i >= 0; i-- {
		fs := d.front[i]
		if fs.Position.X < minPos.X {
			d.unused = append(d.unused, *fs)
			d.front = slices.Delete(d.front, i, i+1)
			changed = true
		}
	}

	if changed {
		d.Compact()
	}

	depth := reachableDepth(nextDepth)
	for i := d.Len() - 1; i >= 0; i-- {
		fs := d.at(i)
		end := fs.Position.X + fs.Size.Length
		switch {
		case end == maxPos.X && fs.Size.Length > depth:
			if depth == 0 {
				d.unused = append(d.unused, *fs)
				d.Remove(fs)
				continue
			}
			behind := *fs
			behind.Size.Length = fs.Size.Length - depth
			d.unused = append(d.unused, behind)
			fs.Position.X += fs.Size.Length - depth
			fs.Size.Length = depth
		case end < maxPos.X:
			d.unused = append(d.unused, *fs)
			d.Remove(fs)
		}
	}
}

// reachableDepth scales the next gene's length by the largest factor that keeps
// it under MaxDepthAllowed, with a minimum factor of one.
func reachableDepth(nextDepth int) int {
	if nextDepth <= 0 {
		return 0
	}
	times := 1
	for nextDepth*(times+1) < MaxDepthAllowed {
		times++
	}
	return nextDepth * times
}

// Clone returns a deep copy of the manager.
func (d *DBLF) Clone() *DBLF {
	cp := &DBLF{
		side:   make([]*FreeSpace, len(d.side)),
		top:    make([]*FreeSpace, len(d.top)),
		front:  make([]*FreeSpace, len(d.front)),
		unused: slices.Clone(d.unused),
	}
	for i, fs := range d.side {
		cp.side[i] = fs.clone()
	}
	for i, fs := range d.top {
		cp.top[i] = fs.clone()
	}
	for i, fs := range d.front {
		cp.front[i] = fs.clone()
	}
	return cp
}
