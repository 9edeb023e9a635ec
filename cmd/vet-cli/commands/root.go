package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonLog    bool

	version = "dev"

	// Root command
	rootCmd = &cobra.Command{
		Use:   "vet-cli",
		Short: "Email address liveness checker",
		Long: `vet-cli classifies email addresses as valid, risky or invalid.
Fast mode uses offline heuristics only. Deep mode resolves MX records and
checks that the primary mail exchanger accepts TCP connections.`,
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (overrides command line flags)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Output logs in JSON format")

	rootCmd.AddCommand(versionCmd)
}

// GetRootCmd returns the root command for testing purposes
func GetRootCmd() *cobra.Command {
	return rootCmd
}
