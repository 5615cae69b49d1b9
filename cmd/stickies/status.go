package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var statusConfig bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the store, scheduler and backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if statusConfig {
			out, err := app.Config.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}

		states := make(map[string]any)
		for _, c := range app.Components() {
			states[c.ComponentType()] = c.State()
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(states)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusConfig, "show-config", false, "Print the effective configuration as YAML instead")
}
