package main

import (
	"github.com/spf13/cobra"

	"shelve/internal/config"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag    string
		verbose       bool
		dryRun        bool
		noInitialScan bool
	)
	ctx := &commandContext{
		configFlag:    &configFlag,
		verbose:       &verbose,
		dryRun:        &dryRun,
		noInitialScan: &noInitialScan,
	}

	rootCmd := &cobra.Command{
		Use:   "shelve",
		Short: "Sort new files into folders by extension",
		Long: "shelve organizes the configured source folder: files already present are\n" +
			"moved once at startup, then new files are moved as they appear until\n" +
			"the process is interrupted.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrganizer(cmd, ctx, true)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print every file decision to the console")
	flags.StringVarP(&configFlag, "config-file", "c", config.DefaultConfigFile, "Configuration file path")
	flags.BoolVarP(&dryRun, "dry-run", "d", false, "Show what would be moved without touching any file")
	rootCmd.Flags().BoolVarP(&noInitialScan, "no-initial-scan", "n", false, "Skip organizing files already in the source folder")

	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
