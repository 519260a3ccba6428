package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/importer"
	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

func newImportCmd(c *cli) *cobra.Command {
	var (
		out       string
		id        string
		container string
		size      string
	)
	dxfOpts := importer.DefaultDXFOptions()

	cmd := &cobra.Command{
		Use:   "import <catalog>",
		Short: "Turn a box catalog into a problem file",
		Long: `Import box types from a CSV, Excel or DXF file and write a problem for
the chosen container.

CSV and Excel columns are detected from the header (label, length, width,
height, min, max, value). DXF rectangles become box footprints with the
height given by --dxf-height.`,
		Example: `  cargoload import boxes.csv --container "20ft Standard" --out problem.json
  cargoload import parts.dxf --size 5898x2352x2393 --dxf-height 400`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var result importer.ImportResult
			if strings.EqualFold(filepath.Ext(path), ".dxf") {
				result = importer.ImportDXF(path, dxfOpts)
			} else {
				result = importer.ImportFile(path)
			}

			w := cmd.OutOrStdout()
			printWarnings(w, result.Warnings)
			for _, msg := range result.Errors {
				fmt.Fprintln(w, errorStyle.Render("error: "+msg))
			}
			if len(result.BoxTypes) == 0 {
				return fmt.Errorf("no box types imported from %s", path)
			}

			s, err := containerSize(size, container)
			if err != nil {
				return err
			}
			problem, err := result.Problem(s)
			if err != nil {
				return err
			}
			if id != "" {
				problem.ID = id
			}
			if err := project.SaveProblems(out, []model.Problem{problem}); err != nil {
				return err
			}
			c.logger.Debug("catalog imported", "source", path, "types", len(problem.BoxTypes))
			fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("wrote problem %s with %d box types to %s", problem.ID, len(problem.BoxTypes), out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "problem.json", "output problem file")
	cmd.Flags().StringVar(&id, "id", "", "problem id (default: generated)")
	cmd.Flags().StringVar(&container, "container", "", "inventory container preset name")
	cmd.Flags().StringVar(&size, "size", "", "container size as LxWxH in mm")
	cmd.Flags().IntVar(&dxfOpts.Height, "dxf-height", dxfOpts.Height, "box height for DXF footprints in mm")
	cmd.Flags().IntVar(&dxfOpts.MaxCount, "dxf-count", dxfOpts.MaxCount, "max count per DXF outline")
	cmd.Flags().Float64Var(&dxfOpts.Tolerance, "dxf-tolerance", dxfOpts.Tolerance, "DXF endpoint chaining tolerance")
	return cmd
}
