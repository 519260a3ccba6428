// Package export renders solved loading plans to PDF, labels, plots and spreadsheets.
package export

import (
	"errors"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// ErrNoPlacements is returned when a plan has no placed boxes to render.
var ErrNoPlacements = errors.New("no boxes placed")

// Plan is a solved problem ready for export.
type Plan struct {
	Problem model.Problem
	Stats   model.Stats
}

// Layer is the group of boxes placed for one gene of the best solution.
type Layer struct {
	Index      int
	Assignment model.GeneAssignment
	BoxType    model.BoxType
	Boxes      []model.Box
}

// Layers groups the placements by gene in solution order. Genes with no
// placed boxes are omitted.
func (p Plan) Layers() []Layer {
	var layers []Layer
	for _, a := range p.Stats.BestSolution {
		var boxes []model.Box
		for _, b := range p.Stats.Placements {
			if b.Type == a.Type {
				boxes = append(boxes, b)
			}
		}
		if len(boxes) == 0 {
			continue
		}
		layer := Layer{Index: len(layers), Assignment: a, Boxes: boxes}
		if bt := p.Problem.FindBoxType(a.Type); bt != nil {
			layer.BoxType = *bt
		} else {
			layer.BoxType = model.BoxType{Type: a.Type}
		}
		layers = append(layers, layer)
	}
	return layers
}

// label returns a display name for a box type id.
func (p Plan) label(boxType int) string {
	if bt := p.Problem.FindBoxType(boxType); bt != nil {
		return bt.DisplayName()
	}
	return model.BoxType{Type: boxType}.DisplayName()
}

// PlacedVolume sums the volume of every placed box.
func (p Plan) PlacedVolume() int {
	total := 0
	for _, b := range p.Stats.Placements {
		total += b.Size.Volume()
	}
	return total
}
