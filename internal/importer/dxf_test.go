package importer

import (
	"path/filepath"
	"testing"

	"github.com/yofu/dxf"

	"github.com/piwi3910/CargoLoad/internal/model"
)

func writeDXF(t *testing.T, build func(lines func(pts ...[2]float64))) string {
	t.Helper()
	d := dxf.NewDrawing()
	lines := func(pts ...[2]float64) {
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
				t.Fatalf("failed to add line: %v", err)
			}
		}
	}
	build(lines)
	path := filepath.Join(t.TempDir(), "footprints.dxf")
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("failed to save DXF: %v", err)
	}
	return path
}

func TestImportDXF_Rectangles(t *testing.T) {
	path := writeDXF(t, func(lines func(pts ...[2]float64)) {
		lines([2]float64{0, 0}, [2]float64{400, 0}, [2]float64{400, 600}, [2]float64{0, 600})
		lines([2]float64{1000, 0}, [2]float64{1600, 0}, [2]float64{1600, 400}, [2]float64{1000, 400})
		lines([2]float64{2000, 0}, [2]float64{2300, 0}, [2]float64{2300, 200}, [2]float64{2000, 200})
	})

	result := ImportDXF(path, DXFOptions{Height: 250, MaxCount: 3})

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.BoxTypes) != 2 {
		t.Fatalf("expected 2 box types, got %d", len(result.BoxTypes))
	}
	first := result.BoxTypes[0]
	if first.Size != (model.Size{Length: 600, Width: 400, Height: 250}) {
		t.Errorf("unexpected size %s", first.Size)
	}
	if first.MaxCount != 6 {
		t.Errorf("expected identical footprints to merge into max 6, got %d", first.MaxCount)
	}
	if result.BoxTypes[1].Size != (model.Size{Length: 300, Width: 200, Height: 250}) {
		t.Errorf("unexpected size %s", result.BoxTypes[1].Size)
	}
}

func TestImportDXF_SkipsNonRectangles(t *testing.T) {
	path := writeDXF(t, func(lines func(pts ...[2]float64)) {
		lines([2]float64{3000, 0}, [2]float64{3500, 0}, [2]float64{3250, 400})
		lines([2]float64{0, 0}, [2]float64{600, 0}, [2]float64{600, 300}, [2]float64{300, 300}, [2]float64{300, 600}, [2]float64{0, 600})
		lines([2]float64{1000, 0}, [2]float64{1500, 0}, [2]float64{1500, 500}, [2]float64{1000, 500})
	})

	result := ImportDXF(path, DefaultDXFOptions())

	if len(result.BoxTypes) != 1 {
		t.Fatalf("expected 1 box type, got %d (warnings: %v)", len(result.BoxTypes), result.Warnings)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", result.Warnings)
	}
}

func TestImportDXF_InvalidOptions(t *testing.T) {
	result := ImportDXF("unused.dxf", DXFOptions{Height: 0, MaxCount: 1})
	if len(result.Errors) == 0 {
		t.Error("expected error for zero height")
	}
}

func TestImportDXF_FileNotFound(t *testing.T) {
	result := ImportDXF(filepath.Join(t.TempDir(), "missing.dxf"), DefaultDXFOptions())
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

func TestRectangleSides(t *testing.T) {
	square := outline{{0, 0}, {100, 0}, {100, 50}, {50, 50}, {0, 50}}
	l, w, ok := rectangleSides(square, 0.01)
	if !ok || l != 100 || w != 50 {
		t.Errorf("expected 100x50 rectangle with collinear vertex, got %dx%d ok=%v", l, w, ok)
	}

	diamond := outline{{50, 0}, {100, 50}, {50, 100}, {0, 50}}
	if _, _, ok := rectangleSides(diamond, 0.01); ok {
		t.Error("rotated square should not count as axis aligned")
	}
}
