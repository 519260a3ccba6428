package commands

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/harness"
	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

func newExperimentCmd(c *cli) *cobra.Command {
	var (
		dir      string
		results  string
		policies []string
		runs     int
	)

	cmd := &cobra.Command{
		Use:   "experiment [problems.json...]",
		Short: "Run every policy on a set of problems",
		Long: `Solve every problem once per group improvement policy and append each
run to a results file. Without arguments the problem sets in --dir are used,
and generated first when none exist.

Each problem is seeded from its id so repeated experiments are comparable.`,
		Example: `  cargoload experiment --dir problems --max-duration 5m --runs 4
  cargoload experiment problems/types_5.json --policies none,late_best --generations 100`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindSolveFlags(c.v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.solveSettings()
			if err != nil {
				return err
			}
			if !c.v.IsSet("solver.seed") {
				settings.Seed = harness.DefaultSeed
			}

			opts := harness.DefaultOptions()
			opts.Settings = settings
			opts.Workers = runs
			opts.Logger = c.logger
			if len(policies) > 0 {
				opts.Policies = opts.Policies[:0]
				for _, name := range policies {
					g, err := model.ParseGroupImprovement(name)
					if err != nil {
						return err
					}
					opts.Policies = append(opts.Policies, g)
				}
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			files := args
			if len(files) == 0 {
				if files, err = presetFiles(dir); err != nil {
					return err
				}
			}
			problems, err := loadProblems(ctx, files, "")
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			var mu sync.Mutex
			opts.OnResult = func(done, total int, stats model.Stats) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(w, "[%d/%d] problem %s %-9s value %.2f occupancy %.2f\n",
					done, total, stats.ProblemID, stats.GroupImprovement, stats.BestValue.Value, stats.BestValue.Occupancy)
			}

			log := project.NewResultsLog(results)
			stats, err := harness.Run(ctx, problems, log, opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(w)
			printTitle(w, fmt.Sprintf("%d runs written to %s", len(stats), log.Path()))
			return printSummary(w, harness.Summarize(stats))
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "problems", "directory holding the types_*.json problem sets")
	cmd.Flags().StringVar(&results, "results", "results.txt", "results file, one JSON run per line")
	cmd.Flags().StringSliceVar(&policies, "policies", nil, "policies to run (default: all)")
	cmd.Flags().IntVar(&runs, "runs", 0, "concurrent runs (default: CPUs - 1)")
	addSolveFlags(cmd.Flags())
	return cmd
}

// presetFiles lists the problem sets in dir, generating them when missing.
func presetFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "types_*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		sort.Strings(files)
		return files, nil
	}
	return writePresets(dir, nil)
}

// writePresets generates the experiment problem sets into dir and returns their paths.
func writePresets(dir string, report func(path string, p project.HarnessPreset, count int)) ([]string, error) {
	var files []string
	for i, p := range project.HarnessPresets() {
		problems, err := project.GenerateProblemSet(i, p.Count, p.Options())
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, p.FileName())
		if err := project.SaveProblems(path, problems); err != nil {
			return nil, err
		}
		if report != nil {
			report(path, p, len(problems))
		}
		files = append(files, path)
	}
	return files, nil
}
