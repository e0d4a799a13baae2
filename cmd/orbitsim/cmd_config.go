package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nvandessel/orbitsim/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage orbitsim configuration",
		Long: `View and modify orbitsim configuration settings.

Configuration is stored in ~/.orbitsim/config.yaml unless --config names
another file. ORBITSIM_* environment variables override file values.

Examples:
  orbitsim config list                              # Show all settings
  orbitsim config get simulation.time_step          # Get a specific setting
  orbitsim config set simulation.time_step 3600     # Set a setting
  orbitsim config set scenario.name binary`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			for _, key := range config.Keys() {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %v\n", key, valueOrDefault(value))
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, err := cfg.Get(key)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, valueOrDefault(value))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				p, err := config.Path()
				if err != nil {
					return err
				}
				path = p
			}

			// Edit the file's own values; environment overrides must not be
			// written back.
			cfg := config.Default()
			if _, err := os.Stat(path); err == nil {
				loaded, err := config.LoadFromFile(path)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				cfg = loaded
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to read config: %w", err)
			}

			if err := cfg.Set(key, value); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}

			newValue, _ := cfg.Get(key)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": newValue,
					"path":  path,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, valueOrDefault(newValue), path)
			return nil
		},
	}
}

// valueOrDefault renders an empty string value as "(not set)".
func valueOrDefault(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return "(not set)"
	}
	return v
}
