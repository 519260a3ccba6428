package export

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// boxColor represents an RGB color for a placed box.
type boxColor struct {
	R, G, B int
}

// boxColors is indexed by box type id.
var boxColors = []boxColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

func colorFor(boxType int) boxColor {
	if boxType < 0 {
		boxType = -boxType
	}
	return boxColors[boxType%len(boxColors)]
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	viewGap      = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// view projects a box onto the page. It returns the horizontal and vertical
// extents in container mm, with the vertical axis measured from the top edge.
type view struct {
	title  string
	width  int // container extent drawn horizontally
	height int // container extent drawn vertically
	rect   func(b model.Box) (x, y, w, h int)
	depth  func(b model.Box) int // boxes are drawn in ascending depth
}

func topView(container model.Size) view {
	return view{
		title:  "Top view (length x width)",
		width:  container.Length,
		height: container.Width,
		rect: func(b model.Box) (int, int, int, int) {
			return b.Position.X, container.Width - b.Position.Y - b.Size.Width, b.Size.Length, b.Size.Width
		},
		depth: func(b model.Box) int { return b.Position.Z + b.Size.Height },
	}
}

func sideView(container model.Size) view {
	return view{
		title:  "Side view (length x height)",
		width:  container.Length,
		height: container.Height,
		rect: func(b model.Box) (int, int, int, int) {
			return b.Position.X, container.Height - b.Position.Z - b.Size.Height, b.Size.Length, b.Size.Height
		},
		depth: func(b model.Box) int { return -b.Position.Y },
	}
}

// ExportPDF generates a loading plan. Each gene layer is rendered on its own
// page with a top and a side view, earlier layers shown in grey, followed by a
// summary page with the fitness and per-type counts.
func ExportPDF(path string, plan Plan) error {
	layers := plan.Layers()
	if len(layers) == 0 {
		return ErrNoPlacements
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(fmt.Sprintf("Loading plan %s", plan.Problem.ID), false)

	var loaded []model.Box
	for _, layer := range layers {
		pdf.AddPage()
		renderLayerPage(pdf, plan, layer, loaded, len(layers))
		loaded = append(loaded, layer.Boxes...)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, plan)

	return pdf.OutputFileAndClose(path)
}

// renderLayerPage draws one gene layer on the current PDF page.
func renderLayerPage(pdf *fpdf.Fpdf, plan Plan, layer Layer, loaded []model.Box, total int) {
	container := plan.Problem.Container

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	rotation := ""
	if layer.Assignment.Rotation == 1 {
		rotation = ", rotated"
	}
	title := fmt.Sprintf("Step %d of %d: %s x%d (%s%s)", layer.Index+1, total,
		layer.BoxType.DisplayName(), len(layer.Boxes), layer.BoxType.Size, rotation)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Container %s mm | Boxes loaded after this step: %d | Problem %s",
		container, len(loaded)+len(layer.Boxes), plan.Problem.ID)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := (pageHeight - drawAreaTop - marginBottom - viewGap) / 2

	y := drawAreaTop
	for _, v := range []view{topView(container), sideView(container)} {
		h := drawView(pdf, v, loaded, layer.Boxes, marginLeft, y, drawWidth, drawHeight)
		y += h + viewGap
	}
}

// drawView renders a projection into the given area and returns the height used.
func drawView(pdf *fpdf.Fpdf, v view, loaded, current []model.Box, left, top, areaW, areaH float64) float64 {
	scale := math.Min(areaW/float64(v.width), (areaH-5)/float64(v.height))
	canvasW := float64(v.width) * scale
	canvasH := float64(v.height) * scale
	offsetX := left + (areaW-canvasW)/2
	offsetY := top + 5

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(offsetX, top)
	pdf.CellFormat(canvasW, 4, v.title, "", 0, "L", false, 0, "")

	// Container floor
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	draw := func(boxes []model.Box, fill func(model.Box)) {
		sorted := make([]model.Box, len(boxes))
		copy(sorted, boxes)
		sort.SliceStable(sorted, func(i, j int) bool { return v.depth(sorted[i]) < v.depth(sorted[j]) })
		for _, b := range sorted {
			x, y, w, h := v.rect(b)
			fill(b)
			pdf.Rect(offsetX+float64(x)*scale, offsetY+float64(y)*scale, float64(w)*scale, float64(h)*scale, "FD")
		}
	}

	pdf.SetLineWidth(0.1)
	pdf.SetDrawColor(150, 150, 150)
	draw(loaded, func(model.Box) { pdf.SetFillColor(200, 200, 200) })

	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(30, 30, 30)
	draw(current, func(b model.Box) {
		col := colorFor(b.Type)
		pdf.SetFillColor(col.R, col.G, col.B)
	})

	drawDimensionAnnotations(pdf, v, offsetX, offsetY, canvasW, canvasH)
	return canvasH + 5
}

// drawDimensionAnnotations adds extent labels outside the container rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, v view, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%d mm", v.width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%d mm", v.height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, plan Plan) {
	stats := plan.Stats

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Loading Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Problem", plan.Problem.ID},
		{"Container", fmt.Sprintf("%s mm", plan.Problem.Container)},
		{"Occupancy", fmt.Sprintf("%.0f%%", stats.BestValue.Occupancy*100)},
		{"Boxes Placed", fmt.Sprintf("%d", len(stats.Placements))},
		{"Total Value", fmt.Sprintf("%.2f", stats.BestValue.Value)},
		{"Improvement Policy", stats.GroupImprovement.String()},
		{"Generations", fmt.Sprintf("%d", stats.Generations)},
		{"Run Time", (time.Duration(stats.Timings.Duration * float64(time.Second))).Round(time.Millisecond).String()},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Box Types", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{20, 55, 45, 25, 25, 25, 25, 40}
	headers := []string{"Step", "Box", "Size", "Placed", "Min", "Max", "Rotated", "Value"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, layer := range plan.Layers() {
		if y > pageHeight-marginBottom-10 {
			pdf.AddPage()
			y = marginTop
		}
		xPos = marginLeft
		rotated := "no"
		if layer.Assignment.Rotation == 1 {
			rotated = "yes"
		}
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			layer.BoxType.DisplayName(),
			layer.BoxType.Size.String(),
			fmt.Sprintf("%d", len(layer.Boxes)),
			fmt.Sprintf("%d", layer.BoxType.MinCount),
			fmt.Sprintf("%d", layer.BoxType.MaxCount),
			rotated,
			fmt.Sprintf("%.2f", layer.BoxType.Value*float64(len(layer.Boxes))),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if stats.Interrupted {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: run was interrupted, plan is the best found so far", "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by CargoLoad - Container Loading Optimizer", "", 0, "C", false, 0, "")
}
