package commands

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/project"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var (
		out       string
		dir       string
		presets   bool
		exact     bool
		types     int
		count     int
		batch     int
		sideMin   int
		sideMax   int
		seed      int64
		container string
		size      string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate random problem sets",
		Long: `Generate random loading problems.

By default writes one set of --count problems to --out. With --presets the
four experiment sets (5, 10, 15 and 20 types) are written to --dir. With
--exact a single problem with a known full loading is written.`,
		Example: `  cargoload generate --types 10 --count 5 --out problems.json
  cargoload generate --presets --dir problems
  cargoload generate --exact --types 8 --out exact.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if presets {
				_, err := writePresets(dir, func(path string, p project.HarnessPreset, count int) {
					fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("wrote %d problems with %d types to %s", count, p.Types, path)))
				})
				return err
			}

			opts := project.DefaultGeneratorOptions()
			opts.Types = types
			opts.BoxSideMin = sideMin
			opts.BoxSideMax = sideMax
			if size != "" || container != "" {
				s, err := containerSize(size, container)
				if err != nil {
					return err
				}
				opts.Container = s
			}

			if exact {
				p, solution, err := project.ExactProblem(rand.New(rand.NewSource(seed)), opts)
				if err != nil {
					return err
				}
				if err := project.SaveExactProblem(out, p, solution); err != nil {
					return err
				}
				fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("wrote exact problem %s to %s", p.ID, out)))
				printField(w, "Boxes", "%d", solution.BoxCount)
				printField(w, "Value", "%.2f", solution.ValueTotal)
				return nil
			}

			problems, err := project.GenerateProblemSet(batch, count, opts)
			if err != nil {
				return err
			}
			if err := project.SaveProblems(out, problems); err != nil {
				return err
			}
			fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("wrote %d problems to %s", len(problems), out)))
			return nil
		},
	}

	d := project.DefaultGeneratorOptions()
	cmd.Flags().StringVarP(&out, "out", "o", "problems.json", "output file")
	cmd.Flags().StringVar(&dir, "dir", "problems", "output directory for --presets")
	cmd.Flags().BoolVar(&presets, "presets", false, "write the experiment problem sets")
	cmd.Flags().BoolVar(&exact, "exact", false, "generate one problem with a known full loading")
	cmd.Flags().IntVar(&types, "types", d.Types, "box types per problem")
	cmd.Flags().IntVar(&count, "count", 25, "problems in the set")
	cmd.Flags().IntVar(&batch, "batch", 0, "batch number, offsets the problem ids")
	cmd.Flags().IntVar(&sideMin, "side-min", d.BoxSideMin, "smallest box side in mm")
	cmd.Flags().IntVar(&sideMax, "side-max", d.BoxSideMax, "largest box side in mm")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for --exact")
	cmd.Flags().StringVar(&container, "container", "", "inventory container preset name")
	cmd.Flags().StringVar(&size, "size", "", "container size as LxWxH in mm")
	return cmd
}
