package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nvandessel/orbitsim/internal/simulation"
	"github.com/nvandessel/orbitsim/internal/visualization"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream a scenario to the browser",
		Long: `Start a local HTTP server that runs a scenario and streams frames over a
websocket at /ws. The page at / draws bodies, trails and distance labels.

Clients may steer the run by sending {"paused": true} or
{"steps_per_frame": 10}. Current body states are also served as JSON at
/api/bodies.

Examples:
  orbitsim serve                         # listen on the configured address
  orbitsim serve --addr localhost:0 --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			open, _ := cmd.Flags().GetBool("open")
			trailPoints, _ := cmd.Flags().GetInt("trail-points")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyScenarioFlags(cmd, cfg)
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("steps-per-frame") {
				cfg.Server.StepsPerFrame, _ = cmd.Flags().GetInt("steps-per-frame")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())

			sc, err := loadScenario(cfg)
			if err != nil {
				return err
			}
			sim, err := sc.Build(cfg.Simulation, simulation.WithLogger(logger))
			if err != nil {
				return err
			}

			srv := visualization.NewServer(sim, visualization.Config{
				Addr:          cfg.Server.Addr,
				FrameInterval: cfg.Server.FrameInterval,
				StepsPerFrame: cfg.Server.StepsPerFrame,
				TrailPoints:   trailPoints,
			}, logger)

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(ctx) }()

			addr, err := waitForAddr(srv, errCh, 3*time.Second)
			if err != nil {
				return err
			}

			url := "http://" + addr
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at %s\n", sc.Name, url)
			fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

			if open {
				if err := visualization.OpenBrowser(url); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
				}
			}

			if err := <-errCh; err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	addScenarioFlags(cmd)
	cmd.Flags().String("addr", "", "Listen address (default from config)")
	cmd.Flags().Int("steps-per-frame", 0, "Simulation steps per frame (0 uses the configured value)")
	cmd.Flags().Int("trail-points", 2000, "Trail points sent to a new client per body (0 sends whole trails)")
	cmd.Flags().Bool("open", false, "Open the page in the default browser")

	return cmd
}

// waitForAddr polls until srv is listening, the server exits or timeout
// passes.
func waitForAddr(srv *visualization.Server, errCh <-chan error, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if addr := srv.Addr(); addr != "" {
			return addr, nil
		}
		select {
		case err := <-errCh:
			if err == nil {
				return "", fmt.Errorf("server stopped before listening")
			}
			return "", fmt.Errorf("server error: %w", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
	return "", fmt.Errorf("server failed to start")
}
