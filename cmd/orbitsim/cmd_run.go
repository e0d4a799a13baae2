package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/nvandessel/orbitsim/internal/config"
	"github.com/nvandessel/orbitsim/internal/logging"
	"github.com/nvandessel/orbitsim/internal/simulation"
	"github.com/nvandessel/orbitsim/internal/store"
	"github.com/spf13/cobra"
)

// runBody is one line of the run summary.
type runBody struct {
	Name                  string  `json:"name"`
	Reference             bool    `json:"reference"`
	X                     float64 `json:"x"`
	Y                     float64 `json:"y"`
	DistanceToReferenceKM float64 `json:"distance_to_reference_km"`
	TrailLen              int     `json:"trail_len"`
}

// runSummary is the result of a headless run.
type runSummary struct {
	Scenario    string    `json:"scenario"`
	Steps       int       `json:"steps"`
	Elapsed     float64   `json:"elapsed"`
	EnergyDrift float64   `json:"energy_drift"`
	RunID       int64     `json:"run_id,omitempty"`
	Database    string    `json:"database,omitempty"`
	Pruned      []int64   `json:"pruned,omitempty"`
	TraceLines  int       `json:"trace_lines,omitempty"`
	Error       string    `json:"error,omitempty"`
	Bodies      []runBody `json:"bodies"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario headless and print a summary",
		Long: `Advance a scenario a fixed number of steps without any display and print
each body's final position, distance to its nearest reference body and
trail length.

Examples:
  orbitsim run                                  # 365 steps of the configured scenario
  orbitsim run --scenario earth-sun --steps 730 # two simulated years
  orbitsim run --file system.yaml --json        # custom scenario, JSON summary
  orbitsim run --record runs.db --every 10      # record every 10th step to SQLite
  orbitsim run --trace ./traces --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			steps, _ := cmd.Flags().GetInt("steps")
			every, _ := cmd.Flags().GetInt("every")

			if steps < 0 {
				return fmt.Errorf("--steps must be non-negative, got %d", steps)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyScenarioFlags(cmd, cfg)
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			summary, runErr := runScenario(ctx, cfg, steps, every, cmd.ErrOrStderr())
			if summary == nil {
				return runErr
			}
			if runErr != nil {
				summary.Error = runErr.Error()
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(summary); err != nil {
					return fmt.Errorf("encode JSON: %w", err)
				}
			} else {
				printRunSummary(cmd.OutOrStdout(), summary)
			}

			return runErr
		},
	}

	addScenarioFlags(cmd)
	cmd.Flags().Int("steps", 365, "Number of steps to run")
	cmd.Flags().String("record", "", "Record samples to this SQLite database")
	cmd.Flags().Int("every", 1, "Record every Nth step")
	cmd.Flags().String("trace", "", "Write per-step JSONL traces to this directory (debug or trace level)")
	cmd.Flags().Int("workers", 0, "Force-phase workers (0 uses the configured value)")
	cmd.Flags().Int("trail-cap", 0, "Maximum trail points per body (0 uses the configured value)")

	return cmd
}

// applyRunFlags copies run-specific flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.OrbitConfig) error {
	if cmd.Flags().Changed("record") {
		cfg.Record.Path, _ = cmd.Flags().GetString("record")
	}
	if cmd.Flags().Changed("trace") {
		cfg.Logging.TraceDir, _ = cmd.Flags().GetString("trace")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Simulation.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("trail-cap") {
		cfg.Simulation.MaxTrailLength, _ = cmd.Flags().GetInt("trail-cap")
	}
	return cfg.Validate()
}

// runScenario builds the configured scenario and advances it steps times,
// recording and tracing as configured. A non-nil summary is returned whenever
// the simulation was built, even if the run stopped early.
func runScenario(ctx context.Context, cfg *config.OrbitConfig, steps, every int, logOut io.Writer) (*runSummary, error) {
	logger := newLogger(cfg, logOut)

	sc, err := loadScenario(cfg)
	if err != nil {
		return nil, err
	}

	tracer := logging.NewStepTracer(cfg.Logging.TraceDir, cfg.Logging.Level)
	defer tracer.Close()

	opts := []simulation.Option{simulation.WithLogger(logger)}
	if tracer != nil {
		opts = append(opts, simulation.WithTracer(tracer))
	}

	sim, err := sc.Build(cfg.Simulation, opts...)
	if err != nil {
		return nil, err
	}

	summary := &runSummary{Scenario: sc.Name}

	retention, err := cfg.Record.Retention()
	if err != nil {
		return nil, err
	}

	var (
		rec     *store.SQLiteRecorder
		observe simulation.Observer
	)
	if cfg.Record.Path != "" {
		rec, err = store.NewSQLiteRecorder(cfg.Record.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open recorder: %w", err)
		}
		defer rec.Close()

		runID, err := store.StartRun(ctx, rec, sc.Name, sim)
		if err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		summary.RunID = runID
		summary.Database = rec.Path()
		observe = store.Observer(ctx, rec, runID, every)
	}

	e0 := sim.TotalEnergy()
	logger.Info("run started", "scenario", sc.Name, "bodies", sim.Len(), "steps", steps)

	runErr := sim.Run(ctx, steps, observe)
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("run interrupted", "step", sim.Steps())
		} else {
			logger.Error("run stopped", "step", sim.Steps(), "error", runErr)
		}
	} else {
		logger.Info("run finished", "steps", sim.Steps(), "elapsed", sim.Elapsed())
	}

	if rec != nil && retention != nil {
		pruned, err := store.ApplyRetention(context.WithoutCancel(ctx), rec, retention)
		if err != nil {
			logger.Warn("failed to prune recorded runs", "error", err)
		}
		if len(pruned) > 0 {
			logger.Info("pruned recorded runs", "runs", pruned)
		}
		summary.Pruned = pruned
	}

	summary.Steps = sim.Steps()
	summary.Elapsed = sim.Elapsed()
	summary.EnergyDrift = energyDrift(e0, sim.TotalEnergy())
	summary.TraceLines = tracer.Lines()
	for _, b := range sim.Snapshot(-1) {
		summary.Bodies = append(summary.Bodies, runBody{
			Name:                  b.Name,
			Reference:             b.Reference,
			X:                     b.Position.X,
			Y:                     b.Position.Y,
			DistanceToReferenceKM: b.DistanceToReference / 1000,
			TrailLen:              b.TrailLen,
		})
	}

	return summary, runErr
}

// energyDrift returns the relative change from e0 to e1, or 0 when either
// energy is not finite (coincident bodies) or e0 is zero.
func energyDrift(e0, e1 float64) float64 {
	if e0 == 0 || math.IsInf(e0, 0) || math.IsNaN(e0) || math.IsInf(e1, 0) || math.IsNaN(e1) {
		return 0
	}
	return (e1 - e0) / e0
}

func printRunSummary(w io.Writer, s *runSummary) {
	fmt.Fprintf(w, "Scenario %s: %d steps, %.1f days simulated\n", s.Scenario, s.Steps, s.Elapsed/86400)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-12s %14s %14s %16s %8s\n", "BODY", "X (m)", "Y (m)", "DISTANCE (km)", "TRAIL")
	for _, b := range s.Bodies {
		name := b.Name
		if b.Reference {
			name += " *"
		}
		fmt.Fprintf(w, "  %-12s %14.6g %14.6g %16.1f %8d\n", name, b.X, b.Y, b.DistanceToReferenceKM, b.TrailLen)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Energy drift: %+.4f%%\n", s.EnergyDrift*100)
	if s.RunID != 0 {
		fmt.Fprintf(w, "Recorded as run %d in %s\n", s.RunID, s.Database)
	}
	if len(s.Pruned) > 0 {
		fmt.Fprintf(w, "Pruned %d older runs\n", len(s.Pruned))
	}
	if s.TraceLines > 0 {
		fmt.Fprintf(w, "Traced %d steps\n", s.TraceLines)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Stopped early: %s\n", s.Error)
	}
}
