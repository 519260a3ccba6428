package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// DXFOptions controls how 2D footprints become box types.
type DXFOptions struct {
	Height    int     // Height assigned to every footprint, in mm
	MaxCount  int     // Max count per distinct footprint; repeated footprints add to it
	Tolerance float64 // Endpoint distance at which segments are chained
}

// DefaultDXFOptions returns a 500 mm height, one box per outline and a 0.01 mm tolerance.
func DefaultDXFOptions() DXFOptions {
	return DXFOptions{Height: 500, MaxCount: 1, Tolerance: 0.01}
}

type point struct{ X, Y float64 }

// segment is a line between two points, used for chaining loose LINE entities
// into closed outlines.
type segment struct {
	start point
	end   point
}

type outline []point

// ImportDXF imports box footprints from a DXF file. Each closed rectangle
// (LWPOLYLINE or chain of connected LINEs) becomes a box type whose length and
// width are the rectangle sides and whose height comes from opts. Identical
// footprints are merged by raising the max count. Other shapes are skipped.
func ImportDXF(path string, opts DXFOptions) ImportResult {
	result := ImportResult{}
	if opts.Height <= 0 || opts.MaxCount <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid DXF options: height %d, max count %d", opts.Height, opts.MaxCount))
		return result
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultDXFOptions().Tolerance
	}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines []outline
	var segments []segment
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			o := make(outline, 0, len(e.Vertices))
			for _, v := range e.Vertices {
				o = append(o, point{X: v[0], Y: v[1]})
			}
			outlines = append(outlines, o)
		case *entity.Line:
			segments = append(segments, segment{
				start: point{X: e.Start[0], Y: e.Start[1]},
				end:   point{X: e.End[0], Y: e.End[1]},
			})
		case *entity.Circle, *entity.Arc:
			result.Warnings = append(result.Warnings, "Skipped curved entity, only rectangular footprints are supported")
		}
	}
	outlines = append(outlines, chainSegments(segments, opts.Tolerance)...)

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	index := make(map[model.Size]int)
	for i, o := range outlines {
		length, width, ok := rectangleSides(o, opts.Tolerance)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped shape %d: not an axis-aligned rectangle", i+1))
			continue
		}
		if length < 1 || width < 1 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped degenerate shape %d (%d x %d mm)", i+1, length, width))
			continue
		}
		size := model.Size{Length: length, Width: width, Height: opts.Height}
		if j, seen := index[size]; seen {
			result.BoxTypes[j].MaxCount += opts.MaxCount
			continue
		}
		id := len(result.BoxTypes)
		index[size] = id
		label := fmt.Sprintf("DXF Box %d", id+1)
		result.BoxTypes = append(result.BoxTypes, model.NewBoxType(id, label, length, width, opts.Height, 0, opts.MaxCount))
	}

	if len(result.BoxTypes) == 0 {
		result.Errors = append(result.Errors, "No rectangular footprints found in DXF file")
	}
	return result
}

// rectangleSides reports the side lengths of an axis-aligned rectangle,
// longest first. Collinear intermediate vertices are allowed.
func rectangleSides(o outline, tolerance float64) (length, width int, ok bool) {
	if len(o) < 4 {
		return 0, 0, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range o {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, p := range o {
		onX := math.Abs(p.X-minX) <= tolerance || math.Abs(p.X-maxX) <= tolerance
		onY := math.Abs(p.Y-minY) <= tolerance || math.Abs(p.Y-maxY) <= tolerance
		if !onX && !onY {
			return 0, 0, false
		}
	}
	if math.Abs(outlineArea(o)-(maxX-minX)*(maxY-minY)) > tolerance*(maxX-minX+maxY-minY) {
		return 0, 0, false
	}
	a, b := int(math.Round(maxX-minX)), int(math.Round(maxY-minY))
	if b > a {
		a, b = b, a
	}
	return a, b, true
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
// Open chains are dropped.
func chainSegments(segs []segment, tolerance float64) []outline {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines []outline

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := outline{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	// Largest first for a stable type order
	sort.SliceStable(outlines, func(i, j int) bool {
		return outlineArea(outlines[i]) > outlineArea(outlines[j])
	})

	return outlines
}

func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

// outlineArea computes the absolute area of a polygon using the shoelace formula.
func outlineArea(o outline) float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += o[i].X * o[j].Y
		area -= o[j].X * o[i].Y
	}
	return math.Abs(area) / 2
}
