package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nvandessel/orbitsim/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded runs as JSON lines",
		Long: `Write the samples recorded by 'orbitsim run --record' as one JSON object
per body per recorded step.

The database defaults to record.path from the config, then ~/.orbitsim/runs.db.

Examples:
  orbitsim export --db runs.db               # every run
  orbitsim export --db runs.db --run 3 -o run3.jsonl
  orbitsim export --db runs.db --list        # list runs instead`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dbPath, _ := cmd.Flags().GetString("db")
			runID, _ := cmd.Flags().GetInt64("run")
			list, _ := cmd.Flags().GetBool("list")
			output, _ := cmd.Flags().GetString("output")

			if runID < 0 {
				return fmt.Errorf("--run must be non-negative, got %d", runID)
			}

			rec, err := openRecordings(dbPath, configuredRecordPath(cmd))
			if err != nil {
				return err
			}
			defer rec.Close()

			ctx := context.Background()

			if list {
				return listRuns(ctx, cmd.OutOrStdout(), rec, jsonOut)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			n, err := store.ExportJSONL(ctx, rec, runID, w)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d samples to %s\n", n, output)
			}
			return nil
		},
	}

	cmd.Flags().String("db", "", "Recorder database path")
	cmd.Flags().Int64("run", 0, "Run ID to export (0 exports every run)")
	cmd.Flags().Bool("list", false, "List recorded runs instead of exporting")
	cmd.Flags().StringP("output", "o", "", "Write samples to this file instead of stdout")

	return cmd
}

// configuredRecordPath returns a loader for record.path from the configuration.
func configuredRecordPath(cmd *cobra.Command) func() (string, error) {
	return func() (string, error) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return "", err
		}
		return cfg.Record.Path, nil
	}
}

// openRecordings opens an existing recorder database. An empty dbPath falls
// back to configured, then to ~/.orbitsim/runs.db.
func openRecordings(dbPath string, configured func() (string, error)) (*store.SQLiteRecorder, error) {
	if dbPath == "" {
		p, err := configured()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}
	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no recordings at %s: %w", dbPath, err)
	}

	rec, err := store.NewSQLiteRecorder(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder: %w", err)
	}
	return rec, nil
}

func listRuns(ctx context.Context, w io.Writer, rec store.Recorder, jsonOut bool) error {
	runs, err := rec.Runs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOut {
		if runs == nil {
			runs = []store.Run{}
		}
		return json.NewEncoder(w).Encode(map[string]interface{}{
			"runs":  runs,
			"count": len(runs),
		})
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%4d  %-10s %d bodies  %6d samples  dt=%gs  %s\n",
			r.ID, r.Scenario, len(r.Bodies), r.Samples, r.TimeStep, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
