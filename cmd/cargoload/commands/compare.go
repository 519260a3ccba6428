package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/engine"
	"github.com/piwi3910/CargoLoad/internal/export"
	"github.com/piwi3910/CargoLoad/internal/model"
)

func newCompareCmd(c *cli) *cobra.Command {
	var (
		id    string
		orlib string
		plot  string
	)

	cmd := &cobra.Command{
		Use:   "compare [problems.json...]",
		Short: "Solve one problem with every group improvement policy",
		Long: `Solve the same problem once per group improvement policy, starting each
run from the same seed, and print the results side by side.`,
		Example: `  cargoload compare problems.json --id 2 --generations 100 --plot compare.png`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindSolveFlags(c.v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.solveSettings()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			problems, err := loadProblems(ctx, args, orlib)
			if err != nil {
				return err
			}
			problem, err := selectProblem(problems, id)
			if err != nil {
				return err
			}

			results, err := engine.CompareStrategies(ctx, &problem, settings, c.logger)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printTitle(w, fmt.Sprintf("Problem %s, %d types", problem.ID, len(problem.BoxTypes)))
			best := engine.BestScenario(results)
			rows := make([][]string, 0, len(results))
			runs := make([]model.Stats, 0, len(results))
			for i, r := range results {
				mark := ""
				if i == best {
					mark = "*"
				}
				rows = append(rows, []string{
					r.Scenario.Settings.Improvement.String() + mark,
					fmt.Sprintf("%.2f", r.BestValue),
					fmt.Sprintf("%.2f", r.Occupancy),
					fmt.Sprint(r.Boxes),
					fmt.Sprintf("%.2f", r.Improvement),
					fmt.Sprint(r.Generations),
					fmt.Sprintf("%.2fs", r.Stats.Timings.Duration),
				})
				runs = append(runs, r.Stats)
			}
			if err := printTable(w, []string{"POLICY", "VALUE", "OCCUPANCY", "BOXES", "GAIN", "GENERATIONS", "DURATION"}, rows); err != nil {
				return err
			}

			if plot != "" {
				title := fmt.Sprintf("Problem %s", problem.ID)
				if err := export.ExportConvergencePlot(plot, title, runs...); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "problem id (default: first problem)")
	cmd.Flags().StringVar(&orlib, "orlib", "", "OR-Library set: file, URL or name")
	cmd.Flags().StringVar(&plot, "plot", "", "write the convergence of every policy to one plot")
	addSolveFlags(cmd.Flags())
	return cmd
}
