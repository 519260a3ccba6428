package export

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// ExportConvergencePlot draws the best value per generation of one or more
// runs. Each run is a line labelled with its improvement policy. The image
// format follows the file extension (png, svg, pdf).
func ExportConvergencePlot(path, title string, runs ...model.Stats) error {
	if len(runs) == 0 {
		return errors.New("no runs to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Best value"

	lines := 0
	for i, run := range runs {
		if len(run.BestValues) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(run.BestValues))
		for g, v := range run.BestValues {
			pts[g].X = float64(g)
			pts[g].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build line for run %d: %w", i+1, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (%.2f)", run.GroupImprovement, run.BestValue.Value), line)
		lines++
	}
	if lines == 0 {
		return errors.New("runs have no generation history")
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
