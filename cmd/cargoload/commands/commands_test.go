package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoLoad/internal/harness"
	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

// execute runs the CLI with a private home directory and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeSmallProblem(t *testing.T, path string) model.Problem {
	t.Helper()
	p := model.Problem{
		ID:        "small",
		Container: model.Size{Length: 2000, Width: 1000, Height: 1000},
		BoxTypes: []model.BoxType{
			model.NewBoxType(0, "crate", 400, 300, 300, 0, 20),
			model.NewBoxType(1, "carton", 250, 250, 200, 0, 30),
			model.NewBoxType(2, "drum", 500, 500, 600, 0, 4),
		},
	}
	require.NoError(t, project.SaveProblems(path, []model.Problem{p}))
	return p
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Size
		wantErr bool
	}{
		{"12010x2330x2380", model.Size{Length: 12010, Width: 2330, Height: 2380}, false},
		{" 10X20x30 ", model.Size{Length: 10, Width: 20, Height: 30}, false},
		{"10x20", model.Size{}, true},
		{"10x0x5", model.Size{}, true},
		{"axbxc", model.Size{}, true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSolveSettingsLayering(t *testing.T) {
	isolateHome(t)
	t.Setenv("CARGOLOAD_SOLVER_TOURNAMENT_SIZE", "3")

	c := &cli{v: viper.New()}
	require.NoError(t, c.initConfig())

	f := pflag.NewFlagSet("solve", pflag.ContinueOnError)
	addSolveFlags(f)
	require.NoError(t, f.Parse([]string{"--population", "12", "--improvement", "late-best", "--generations", "7"}))
	require.NoError(t, bindSolveFlags(c.v, f))

	s, err := c.solveSettings()
	require.NoError(t, err)

	assert.Equal(t, 12, s.PopulationSize)
	assert.Equal(t, 3, s.TournamentSize)
	assert.Equal(t, 7, s.MaxGenerations)
	assert.Equal(t, model.ImprovementLateBest, s.Improvement)
	// untouched values come from the saved app config defaults
	assert.Equal(t, 0.8, s.CrossoverRate)
	assert.Equal(t, 300*time.Second, s.MaxDuration)
}

func TestSolveSettingsNeedsStopCondition(t *testing.T) {
	isolateHome(t)
	c := &cli{v: viper.New()}
	require.NoError(t, c.initConfig())

	f := pflag.NewFlagSet("solve", pflag.ContinueOnError)
	addSolveFlags(f)
	require.NoError(t, f.Parse([]string{"--max-duration", "0"}))
	require.NoError(t, bindSolveFlags(c.v, f))

	_, err := c.solveSettings()
	assert.Error(t, err)
}

func TestSolveSettingsRejectsUnknownImprovement(t *testing.T) {
	isolateHome(t)
	c := &cli{v: viper.New()}
	require.NoError(t, c.initConfig())

	f := pflag.NewFlagSet("solve", pflag.ContinueOnError)
	addSolveFlags(f)
	require.NoError(t, f.Parse([]string{"--improvement", "sometimes"}))
	require.NoError(t, bindSolveFlags(c.v, f))

	_, err := c.solveSettings()
	assert.Error(t, err)
}

func TestSolveWritesOutputs(t *testing.T) {
	home := isolateHome(t)
	dir := t.TempDir()
	problems := filepath.Join(dir, "problems.json")
	writeSmallProblem(t, problems)

	outputs := map[string]string{
		"--json":    filepath.Join(dir, "stats.json"),
		"--pdf":     filepath.Join(dir, "plan.pdf"),
		"--labels":  filepath.Join(dir, "labels.pdf"),
		"--plot":    filepath.Join(dir, "convergence.png"),
		"--xlsx":    filepath.Join(dir, "manifest.xlsx"),
		"--results": filepath.Join(dir, "results.txt"),
	}
	args := []string{"solve", problems, "--id", "small", "--population", "10", "--generations", "3", "--max-duration", "0"}
	for flag, path := range outputs {
		args = append(args, flag, path)
	}

	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Problem small")
	assert.Contains(t, out, "crate")

	for flag, path := range outputs {
		info, err := os.Stat(path)
		require.NoError(t, err, flag)
		assert.Positive(t, info.Size(), flag)
	}

	data, err := os.ReadFile(outputs["--json"])
	require.NoError(t, err)
	var stats model.Stats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, "small", stats.ProblemID)
	assert.Equal(t, 3, stats.Generations)
	assert.Positive(t, stats.BestValue.Boxes)

	appCfg, err := project.LoadAppConfig(filepath.Join(home, ".cargoload", "config.json"))
	require.NoError(t, err)
	require.NotEmpty(t, appCfg.RecentProblems)
	assert.Equal(t, problems, appCfg.RecentProblems[0])

	out, err = execute(t, "report", outputs["--results"])
	require.NoError(t, err)
	assert.Contains(t, out, "1 runs from")

	out, err = execute(t, "report", outputs["--results"], "--where", "types == 3", "--json")
	require.NoError(t, err)
	var summaries []harness.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Runs)

	out, err = execute(t, "report", outputs["--results"], "--where", "types == 4", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestSolveWithoutProblem(t *testing.T) {
	isolateHome(t)
	_, err := execute(t, "solve", "--generations", "1")
	assert.ErrorContains(t, err, "no problem file")
}

func TestSolveUnknownProblemID(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "problems.json")
	writeSmallProblem(t, path)

	_, err := execute(t, "solve", path, "--id", "missing", "--generations", "1")
	assert.ErrorContains(t, err, "not found")
}

func TestCompareListsEveryPolicy(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	problems := filepath.Join(dir, "problems.json")
	writeSmallProblem(t, problems)
	plot := filepath.Join(dir, "compare.png")

	out, err := execute(t, "compare", problems, "--population", "10", "--generations", "2", "--max-duration", "0", "--plot", plot)
	require.NoError(t, err)
	for _, g := range model.AllGroupImprovements() {
		assert.Contains(t, out, g.String())
	}
	assert.Contains(t, out, "*")
	assert.FileExists(t, plot)
}

func TestGenerate(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "problems.json")

	_, err := execute(t, "generate", "--types", "3", "--count", "2", "--size", "2000x1000x1000",
		"--side-min", "200", "--side-max", "400", "--out", path)
	require.NoError(t, err)

	problems, err := project.LoadProblems(path)
	require.NoError(t, err)
	require.Len(t, problems, 2)
	for _, p := range problems {
		assert.Len(t, p.BoxTypes, 3)
		assert.Equal(t, model.Size{Length: 2000, Width: 1000, Height: 1000}, p.Container)
	}
}

func TestGenerateExact(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "exact.json")

	out, err := execute(t, "generate", "--exact", "--types", "3", "--size", "2000x1000x1000",
		"--side-min", "200", "--side-max", "400", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "exact problem")

	files, err := project.LoadProblemFiles(path)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.NotNil(t, files[0].Solution)
}

func TestGenerateUnknownContainer(t *testing.T) {
	isolateHome(t)
	_, err := execute(t, "generate", "--container", "Moon base", "--out", filepath.Join(t.TempDir(), "p.json"))
	assert.ErrorContains(t, err, "not in inventory")
}

func TestContainersAddListRemove(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "containers", "add", "Swap body", "7450", "2480", "2700", "--payload", "16000")
	require.NoError(t, err)

	out, err := execute(t, "containers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Swap body")
	assert.Contains(t, out, model.DefaultContainerName)

	_, err = execute(t, "containers", "remove", "swap body")
	require.NoError(t, err)

	out, err = execute(t, "containers", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Swap body")

	_, err = execute(t, "containers", "add", "Broken", "10", "x", "10")
	assert.Error(t, err)
}

func TestContainersBackupRestore(t *testing.T) {
	isolateHome(t)
	backup := filepath.Join(t.TempDir(), "backup.json")

	_, err := execute(t, "containers", "add", "Pallet", "1200", "800", "1500")
	require.NoError(t, err)
	_, err = execute(t, "containers", "backup", backup)
	require.NoError(t, err)
	_, err = execute(t, "containers", "remove", "Pallet")
	require.NoError(t, err)

	out, err := execute(t, "containers", "restore", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "restored")

	inv, err := project.LoadInventory(project.DefaultInventoryPath())
	require.NoError(t, err)
	assert.NotNil(t, inv.FindContainerByName("Pallet"))
}

func TestImportCSV(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	catalog := filepath.Join(dir, "boxes.csv")
	require.NoError(t, os.WriteFile(catalog, []byte("label,length,width,height,min,max\ncrate,400,300,200,0,10\ncarton,300,300,300,1,5\n"), 0644))
	out := filepath.Join(dir, "problem.json")

	_, err := execute(t, "import", catalog, "--size", "2000x1000x1000", "--id", "crates", "--out", out)
	require.NoError(t, err)

	problems, err := project.LoadProblems(out)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "crates", problems[0].ID)
	assert.Len(t, problems[0].BoxTypes, 2)
}

func TestImportEmptyCatalog(t *testing.T) {
	isolateHome(t)
	catalog := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(catalog, []byte("label,length,width,height\n"), 0644))

	_, err := execute(t, "import", catalog, "--size", "2000x1000x1000")
	assert.ErrorContains(t, err, "no box types")
}

func TestToken(t *testing.T) {
	isolateHome(t)
	t.Setenv("CARGOLOAD_AUTH_SECRET", "s3cret")

	out, err := execute(t, "token", "--subject", "ci")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)
}

func TestTokenNeedsSecret(t *testing.T) {
	isolateHome(t)
	t.Setenv("CARGOLOAD_AUTH_SECRET", "")

	_, err := execute(t, "token")
	assert.Error(t, err)
}

func TestUnknownLogFormat(t *testing.T) {
	isolateHome(t)
	_, err := execute(t, "containers", "list", "--log-format", "xml")
	assert.ErrorContains(t, err, "unknown log format")
}
