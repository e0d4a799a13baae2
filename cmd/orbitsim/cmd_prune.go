package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nvandessel/orbitsim/internal/store"
	"github.com/spf13/cobra"
)

type pruneResult struct {
	Database string  `json:"database"`
	DryRun   bool    `json:"dry_run"`
	Pruned   []int64 `json:"pruned"`
	Kept     int     `json:"kept"`
}

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old recorded runs",
		Long: `Delete recorded runs that fall outside a retention policy.

--keep keeps the newest N runs; --max-age keeps runs younger than the given
age ("30d", "2w", "720h"). With both, a run survives if either keeps it.
Without either flag, record.max_runs and record.max_age from the config
apply.

Examples:
  orbitsim prune --keep 10
  orbitsim prune --max-age 2w --dry-run
  orbitsim prune --db runs.db --keep 1 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dbPath, _ := cmd.Flags().GetString("db")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAgeStr, _ := cmd.Flags().GetString("max-age")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			if keep < 0 {
				return fmt.Errorf("--keep must be non-negative, got %d", keep)
			}

			var policy store.RetentionPolicy
			if keep > 0 || maxAgeStr != "" {
				var maxAge time.Duration
				if maxAgeStr != "" {
					d, err := store.ParseDuration(maxAgeStr)
					if err != nil {
						return fmt.Errorf("--max-age: %w", err)
					}
					maxAge = d
				}
				policy = store.NewRetentionPolicy(keep, maxAge)
			} else {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				policy, err = cfg.Record.Retention()
				if err != nil {
					return err
				}
			}
			if policy == nil {
				return fmt.Errorf("no retention limit: pass --keep or --max-age, or set record.max_runs or record.max_age")
			}

			rec, err := openRecordings(dbPath, configuredRecordPath(cmd))
			if err != nil {
				return err
			}
			defer rec.Close()

			ctx := context.Background()
			result := pruneResult{Database: rec.Path(), DryRun: dryRun, Pruned: []int64{}}

			if dryRun {
				expired, err := store.Expired(ctx, rec, policy)
				if err != nil {
					return fmt.Errorf("failed to evaluate retention: %w", err)
				}
				for _, r := range expired {
					result.Pruned = append(result.Pruned, r.ID)
				}
			} else {
				deleted, err := store.ApplyRetention(ctx, rec, policy)
				if err != nil {
					return fmt.Errorf("prune failed: %w", err)
				}
				result.Pruned = append(result.Pruned, deleted...)
			}

			runs, err := rec.Runs(ctx)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			result.Kept = len(runs)
			if dryRun {
				result.Kept -= len(result.Pruned)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(result)
			}

			verb := "Deleted"
			if dryRun {
				verb = "Would delete"
			}
			if len(result.Pruned) == 0 {
				fmt.Fprintf(out, "Nothing to prune; %d runs kept.\n", result.Kept)
				return nil
			}
			fmt.Fprintf(out, "%s %d runs %v; %d kept.\n", verb, len(result.Pruned), result.Pruned, result.Kept)
			return nil
		},
	}

	cmd.Flags().String("db", "", "Recorder database path")
	cmd.Flags().Int("keep", 0, "Keep the newest N runs")
	cmd.Flags().String("max-age", "", "Keep runs younger than this (e.g. 30d, 2w, 720h)")
	cmd.Flags().Bool("dry-run", false, "Show what would be deleted without deleting")

	return cmd
}
