package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piwi3910/CargoLoad/internal/telemetry"
)

// cli carries the state shared by every command of one invocation.
type cli struct {
	cfgFile   string
	verbose   bool
	logFormat string

	v      *viper.Viper
	logger *slog.Logger
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "cargoload",
		Short: "Container loading optimizer",
		Long: `CargoLoad - container loading optimization

Packs box types into a container with a genetic algorithm and a
deepest-bottom-left-fill placement heuristic.`,
		Version:       telemetry.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.initConfig(); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), c.verbose, c.logFormat)
			if err != nil {
				return err
			}
			c.logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ~/.cargoload.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&c.logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(
		newGenerateCmd(c),
		newSolveCmd(c),
		newCompareCmd(c),
		newExperimentCmd(c),
		newReportCmd(c),
		newImportCmd(c),
		newContainersCmd(c),
		newServeCmd(c),
		newWorkerCmd(c),
		newTokenCmd(c),
	)
	return rootCmd
}

func (c *cli) initConfig() error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		c.v.SetConfigFile(filepath.Join(home, ".cargoload.yaml"))
	}
	c.v.SetConfigType("yaml")
	c.v.SetEnvPrefix("CARGOLOAD")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		// the default file is optional, an explicit one is not
		if c.cfgFile != "" {
			return fmt.Errorf("failed to read config %s: %w", c.cfgFile, err)
		}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
