package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/orbitsim/internal/scenario"
	"github.com/spf13/cobra"
)

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List and show built-in scenarios",
		Long: `Inspect the built-in scenarios.

'show' prints a scenario as YAML, ready to be edited and passed back
with --file.

Examples:
  orbitsim scenarios list
  orbitsim scenarios show binary > binary.yaml
  orbitsim run --file binary.yaml`,
	}

	cmd.AddCommand(
		newScenariosListCmd(),
		newScenariosShowCmd(),
	)

	return cmd
}

// scenarioListItem is one entry in the scenarios list output.
type scenarioListItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Bodies      int    `json:"bodies"`
}

func newScenariosListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			items := make([]scenarioListItem, 0, len(scenario.Names()))
			for _, name := range scenario.Names() {
				sc, err := scenario.Builtin(name)
				if err != nil {
					return err
				}
				items = append(items, scenarioListItem{
					Name:        sc.Name,
					Description: sc.Description,
					Bodies:      len(sc.Bodies),
				})
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"scenarios": items,
					"count":     len(items),
				})
			}

			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %d bodies  %s\n", it.Name, it.Bodies, it.Description)
			}
			return nil
		},
	}
}

func newScenariosShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a built-in scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			sc, err := scenario.Builtin(args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sc)
			}

			data, err := sc.Marshal()
			if err != nil {
				return fmt.Errorf("failed to encode scenario: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
