package main

import (
	"fmt"
	"os"

	"github.com/aretw0/covpipe/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "covpipe",
	Short: "covpipe builds, tests and reports coverage for a CMake project",
	Long: `covpipe recreates the build directory, then runs cmake, ninja, ctest, fastcov and
genhtml in order. The first failing stage stops the run and its exit status becomes
covpipe's exit status.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "covpipe: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Base directory containing the project and fastcov.py")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default <dir>/covpipe.yaml)")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a configuration key (key=value, repeatable)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON on stderr")
}

// optionsFrom reads the persistent flags shared by every command.
func optionsFrom(cmd *cobra.Command) cli.RunOptions {
	dir, _ := cmd.Flags().GetString("dir")
	configPath, _ := cmd.Flags().GetString("config")
	overrides, _ := cmd.Flags().GetStringArray("set")
	debug, _ := cmd.Flags().GetBool("debug")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	return cli.RunOptions{
		BaseDir:    dir,
		ConfigPath: configPath,
		Overrides:  overrides,
		Debug:      debug,
		JSONLogs:   jsonLogs,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	}
}
