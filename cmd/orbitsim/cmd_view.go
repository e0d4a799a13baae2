package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/nvandessel/orbitsim/internal/render"
	"github.com/nvandessel/orbitsim/internal/simulation"
	"github.com/spf13/cobra"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Watch a scenario in the terminal",
		Long: `Run a scenario in an interactive terminal view.

Keys:
  q, Esc, Ctrl-C  quit
  space           pause / resume
  + / -           zoom in / out
  arrows          pan
  c               recenter
  t               toggle trails
  d               toggle distance labels

Log output is held until the view exits and then written to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyScenarioFlags(cmd, cfg)
			if cmd.Flags().Changed("fps") {
				cfg.View.FPS, _ = cmd.Flags().GetInt("fps")
			}
			if cmd.Flags().Changed("steps-per-frame") {
				cfg.View.StepsPerFrame, _ = cmd.Flags().GetInt("steps-per-frame")
			}
			if cmd.Flags().Changed("scale") {
				cfg.View.ScaleAU, _ = cmd.Flags().GetFloat64("scale")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			trailPoints, _ := cmd.Flags().GetInt("trail-points")

			var logBuf bytes.Buffer
			logger := newLogger(cfg, &logBuf)
			defer func() {
				cmd.ErrOrStderr().Write(logBuf.Bytes())
			}()

			sc, err := loadScenario(cfg)
			if err != nil {
				return err
			}
			sim, err := sc.Build(cfg.Simulation, simulation.WithLogger(logger))
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("failed to initialize screen: %w", err)
			}
			defer screen.Fini()

			view := render.NewView(screen, sim, render.Config{
				FPS:           cfg.View.FPS,
				StepsPerFrame: cfg.View.StepsPerFrame,
				CellsPerAU:    cfg.View.ScaleAU,
				Options: render.Options{
					ShowTrails:    cfg.View.ShowTrails,
					ShowDistances: cfg.View.ShowDistances,
				},
				TrailPoints: trailPoints,
			}, logger)

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			logger.Info("view started", "scenario", sc.Name, "bodies", sim.Len())
			if err := view.Run(ctx); err != nil {
				return err
			}
			logger.Info("view closed", "step", sim.Steps())

			return nil
		},
	}

	addScenarioFlags(cmd)
	cmd.Flags().Int("fps", 0, "Frames per second (0 uses the configured value)")
	cmd.Flags().Int("steps-per-frame", 0, "Simulation steps per frame (0 uses the configured value)")
	cmd.Flags().Float64("scale", 0, "Initial zoom in cells per AU (0 uses the configured value)")
	cmd.Flags().Int("trail-points", 2000, "Recent trail points drawn per body (0 draws whole trails)")

	return cmd
}
