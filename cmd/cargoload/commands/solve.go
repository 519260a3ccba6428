package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/engine"
	"github.com/piwi3910/CargoLoad/internal/export"
	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

type solveOutputs struct {
	results string
	stats   string
	pdf     string
	labels  string
	plot    string
	xlsx    string
}

func newSolveCmd(c *cli) *cobra.Command {
	var (
		id    string
		orlib string
		out   solveOutputs
	)

	cmd := &cobra.Command{
		Use:   "solve [problems.json...]",
		Short: "Solve one loading problem",
		Long: `Run the genetic algorithm on one problem and report the best loading.

The problem is taken from the given files, or from an OR-Library set with
--orlib (a file path, URL or set name such as thpack1). --id selects the
problem, the first one is used otherwise. Press Ctrl+C to stop early and
keep the best solution found so far.`,
		Example: `  cargoload solve problems.json --id 3 --generations 200 --pdf plan.pdf
  cargoload solve --orlib thpack1 --id 1 --improvement late_best --stop-unimproved 50`,
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

			stats, err := engine.Solve(ctx, &problem, settings, c.logger)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), problem, stats)

			if err := writeOutputs(out, problem, stats); err != nil {
				return err
			}
			if len(args) > 0 {
				rememberProblem(args[0])
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "problem id (default: first problem)")
	f.StringVar(&orlib, "orlib", "", "OR-Library set: file, URL or name")
	f.StringVar(&out.results, "results", "", "append the run statistics to this results file")
	f.StringVar(&out.stats, "json", "", "write the run statistics as JSON")
	f.StringVar(&out.pdf, "pdf", "", "write the loading plan PDF")
	f.StringVar(&out.labels, "labels", "", "write box labels PDF")
	f.StringVar(&out.plot, "plot", "", "write the convergence plot (png, svg or pdf)")
	f.StringVar(&out.xlsx, "xlsx", "", "write the loading manifest spreadsheet")
	addSolveFlags(f)
	return cmd
}

func writeOutputs(out solveOutputs, problem model.Problem, stats model.Stats) error {
	plan := export.Plan{Problem: problem, Stats: stats}

	if out.results != "" {
		if err := project.NewResultsLog(out.results).Append(stats); err != nil {
			return err
		}
	}
	if out.stats != "" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode stats: %w", err)
		}
		if err := os.WriteFile(out.stats, data, 0644); err != nil {
			return fmt.Errorf("failed to write stats: %w", err)
		}
	}
	if out.pdf != "" {
		if err := export.ExportPDF(out.pdf, plan); err != nil {
			return err
		}
	}
	if out.labels != "" {
		if err := export.ExportLabels(out.labels, plan); err != nil {
			return err
		}
	}
	if out.plot != "" {
		title := fmt.Sprintf("Problem %s (%s)", problem.ID, stats.GroupImprovement)
		if err := export.ExportConvergencePlot(out.plot, title, stats); err != nil {
			return err
		}
	}
	if out.xlsx != "" {
		if err := export.ExportManifest(out.xlsx, plan); err != nil {
			return err
		}
	}
	return nil
}

// rememberProblem records the file in the recent list. Failures only cost the history.
func rememberProblem(path string) {
	cfgPath := project.DefaultConfigPath()
	appCfg, err := project.LoadAppConfig(cfgPath)
	if err != nil {
		return
	}
	appCfg.AddRecentProblem(path, 10)
	_ = project.SaveAppConfig(cfgPath, appCfg)
}
