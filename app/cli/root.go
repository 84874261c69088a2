package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"adOptimizer/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "adopt",
		Short:         "Ad budget optimizer: allocate spend across ads from past performance",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			_ = godotenv.Load()
			if verbose {
				logger.Init("development")
			}
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		newSharesCmd(),
		newSimulateCmd(),
		newTokenCmd(),
	)

	return rootCmd
}
