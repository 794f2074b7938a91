package main

import (
	"github.com/aretw0/covpipe/internal/cli"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return cli.History(cmd.Context(), optionsFrom(cmd), limit)
	},
}

var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one recorded run (default: the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := cli.LatestRun
		if len(args) == 1 {
			id = args[0]
		}
		return cli.Show(cmd.Context(), optionsFrom(cmd), id)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 for all)")
}
