package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/piwi3910/CargoLoad/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ADD8")).
			Width(14)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575"))
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printField(w io.Writer, label string, format string, args ...any) {
	fmt.Fprintln(w, labelStyle.Render(label)+fmt.Sprintf(format, args...))
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, warnStyle.Render("warning: "+msg))
	}
}

// printTable writes tab-aligned rows under a header.
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// printStats renders the headline numbers of a run.
func printStats(w io.Writer, problem model.Problem, stats model.Stats) {
	printTitle(w, fmt.Sprintf("Problem %s", stats.ProblemID))
	printField(w, "Container", "%dx%dx%d mm", problem.Container.Length, problem.Container.Width, problem.Container.Height)
	printField(w, "Types", "%d", stats.TypesCount)
	printField(w, "Policy", "%s", stats.GroupImprovement)
	printField(w, "Best", "%s", stats.BestValue)
	printField(w, "Initial", "%s", stats.InitialBest)
	printField(w, "Gain", "%.2f", stats.Improvement())
	printField(w, "Generations", "%d", stats.Generations)
	printField(w, "Duration", "%.2fs", stats.Timings.Duration)
	if stats.Interrupted {
		fmt.Fprintln(w, warnStyle.Render("run interrupted, showing best solution so far"))
	}

	rows := make([][]string, 0, len(stats.BestSolution))
	for i, a := range stats.BestSolution {
		label := ""
		if bt := problem.FindBoxType(a.Type); bt != nil {
			label = bt.Label
		}
		rotated := "no"
		if a.Rotation == 1 {
			rotated = "yes"
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1), fmt.Sprint(a.Type), label, fmt.Sprint(a.Count), rotated,
		})
	}
	fmt.Fprintln(w)
	_ = printTable(w, []string{"STEP", "TYPE", "LABEL", "COUNT", "ROTATED"}, rows)
}
