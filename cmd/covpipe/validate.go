package main

import (
	"os"

	"github.com/aretw0/covpipe/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration, project layout and required tools",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(cli.Validate(optionsFrom(cmd)))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
