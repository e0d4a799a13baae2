package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nvandessel/orbitsim/internal/config"
	"github.com/nvandessel/orbitsim/internal/logging"
	"github.com/nvandessel/orbitsim/internal/scenario"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orbitsim",
		Short: "Two-dimensional N-body gravity simulator",
		Long: `orbitsim advances a set of point masses under mutual Newtonian gravity
with a fixed time step and records each body's trail.

Run it headless, watch it in the terminal, stream it to a browser,
or drive it from an MCP client.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.orbitsim/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: warn, info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newViewCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newScenariosCmd(),
		newExportCmd(),
		newPruneCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// loadConfig loads the configuration named by --config, applies --log-level
// and validates the result.
func loadConfig(cmd *cobra.Command) (*config.OrbitConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyScenarioFlags lets --scenario and --file override the configured
// scenario. A --scenario on its own clears a configured file.
func applyScenarioFlags(cmd *cobra.Command, cfg *config.OrbitConfig) {
	if cmd.Flags().Changed("scenario") {
		cfg.Scenario.Name, _ = cmd.Flags().GetString("scenario")
		cfg.Scenario.File = ""
	}
	if cmd.Flags().Changed("file") {
		cfg.Scenario.File, _ = cmd.Flags().GetString("file")
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().String("scenario", "", "Built-in scenario name (see 'orbitsim scenarios list')")
	cmd.Flags().String("file", "", "Scenario YAML file (overrides --scenario)")
}

func loadScenario(cfg *config.OrbitConfig) (*scenario.Scenario, error) {
	sc, err := scenario.Resolve(cfg.Scenario.Name, cfg.Scenario.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	return sc, nil
}

func newLogger(cfg *config.OrbitConfig, w io.Writer) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, w)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
