package main

import (
	"context"
	"fmt"

	"github.com/nvandessel/orbitsim/internal/mcp"
	"github.com/nvandessel/orbitsim/internal/pathutil"
	"github.com/nvandessel/orbitsim/internal/simulation"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server over stdio",
		Long: `Serve a live simulation to MCP clients over stdin/stdout.

Tools:
  orbitsim_step     advance the simulation and return body states
  orbitsim_bodies   current body states and total energy
  orbitsim_trail    recorded trail of one body
  orbitsim_reset    reload the scenario, load another built-in one, or load
                    a scenario file from an allowed directory

Resource:
  orbitsim://bodies current body states as JSON

Logs go to stderr; stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			auditDir, _ := cmd.Flags().GetString("audit-dir")
			scenarioDirs, _ := cmd.Flags().GetStringSlice("scenario-dir")
			if len(scenarioDirs) == 0 {
				dirs, err := pathutil.DefaultScenarioDirs()
				if err != nil {
					return err
				}
				scenarioDirs = dirs
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyScenarioFlags(cmd, cfg)

			logger := newLogger(cfg, cmd.ErrOrStderr())

			sc, err := loadScenario(cfg)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:         "orbitsim",
				Version:      version,
				Scenario:     sc,
				Simulation:   cfg.Simulation,
				AuditDir:     auditDir,
				ScenarioDirs: scenarioDirs,
				Logger:       logger,
				Options:      []simulation.Option{simulation.WithLogger(logger)},
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			return server.Run(context.Background())
		},
	}

	addScenarioFlags(cmd)
	cmd.Flags().String("audit-dir", "", "Append tool calls to audit.jsonl in this directory")
	cmd.Flags().StringSlice("scenario-dir", nil, "Directory orbitsim_reset may load scenario files from (default ~/.orbitsim/scenarios)")

	return cmd
}
