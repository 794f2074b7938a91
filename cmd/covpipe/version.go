package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/covpipe"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of covpipe",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "covpipe version %s\n", strings.TrimSpace(covpipe.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
