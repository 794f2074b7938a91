package main

import (
	"context"
	"os"

	"github.com/aretw0/covpipe/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the build, test and coverage pipeline",
	Long: `Runs configure, build, test, coverage and report in order from the base directory.
Exits with the failing stage's exit status, 1 on configuration errors and 130 when interrupted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFrom(cmd)
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.NoHistory, _ = cmd.Flags().GetBool("no-history")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")

		sigCtx := cli.NewSignalContext(context.Background())
		code := cli.Execute(sigCtx, opts)
		sigCtx.Cancel()
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("watch", "w", false, "Re-run whenever the project sources change")
	runCmd.Flags().Bool("no-history", false, "Do not record this run")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and status line")

	// Running the pipeline is the default action.
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.Run = runCmd.Run
}
