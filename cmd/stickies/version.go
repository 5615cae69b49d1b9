package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stickies"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stickies",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stickies version %s\n", stickies.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
