package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/export"
	"github.com/piwi3910/CargoLoad/internal/harness"
	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

func newReportCmd(c *cli) *cobra.Command {
	var (
		where   string
		asJSON  bool
		plot    string
		problem string
	)

	cmd := &cobra.Command{
		Use:   "report [results.txt]",
		Short: "Summarize an experiment results file",
		Long: `Group the runs of a results file by box type count and policy and print
mean value, occupancy, gain and wins.

--where filters runs with a CEL expression over problem, improvement, value,
occupancy, initial, gain, duration, boxes, types, generations and interrupted.`,
		Example: `  cargoload report results.txt
  cargoload report results.txt --where 'types == 20 && !interrupted'
  cargoload report results.txt --problem 7 --plot problem7.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "results.txt"
			if len(args) == 1 {
				path = args[0]
			}

			var filter *harness.Filter
			if where != "" {
				f, err := harness.NewFilter(where)
				if err != nil {
					return err
				}
				filter = f
			}
			results, err := project.ReadResults(path)
			if err != nil {
				return err
			}
			if results, err = filter.Apply(results); err != nil {
				return err
			}
			c.logger.Debug("results loaded", "path", path, "runs", len(results))

			if plot != "" {
				if err := plotProblem(plot, problem, results); err != nil {
					return err
				}
			}

			summaries := harness.Summarize(results)
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			printTitle(w, fmt.Sprintf("%d runs from %s", len(results), path))
			return printSummary(w, summaries)
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "CEL filter over each run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().StringVar(&plot, "plot", "", "plot the convergence of the runs of --problem")
	cmd.Flags().StringVar(&problem, "problem", "", "problem id for --plot")
	return cmd
}

func plotProblem(path, problemID string, results []model.Stats) error {
	if problemID == "" {
		return fmt.Errorf("--plot needs --problem")
	}
	var runs []model.Stats
	for _, s := range results {
		if s.ProblemID == problemID {
			runs = append(runs, s)
		}
	}
	if len(runs) == 0 {
		return fmt.Errorf("no runs for problem %q", problemID)
	}
	return export.ExportConvergencePlot(path, fmt.Sprintf("Problem %s", problemID), runs...)
}

func printSummary(w io.Writer, summaries []harness.Summary) error {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			fmt.Sprint(s.TypesCount),
			s.Improvement.String(),
			fmt.Sprint(s.Runs),
			fmt.Sprintf("%.2f", s.MeanValue),
			fmt.Sprintf("%.2f", s.MeanOccupancy),
			fmt.Sprintf("%.2f", s.MeanGain),
			fmt.Sprintf("%.1f", s.MeanGenerations),
			fmt.Sprintf("%.1fs", s.MeanDuration),
			fmt.Sprint(s.Wins),
			fmt.Sprint(s.Interrupted),
		})
	}
	return printTable(w, []string{"TYPES", "POLICY", "RUNS", "VALUE", "OCCUPANCY", "GAIN", "GENERATIONS", "DURATION", "WINS", "INTERRUPTED"}, rows)
}
