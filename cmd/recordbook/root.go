package main

import (
	"github.com/spf13/cobra"

	"recordbook/internal/version"
)

var (
	// rootFlag overrides the directory holding .recordbook/
	rootFlag string
	// formatFlag is the output format: human or json
	formatFlag string
	verbosity  int
	quietFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "recordbook",
	Short: "recordbook - a local record book on embedded SQLite",
	Long: `recordbook keeps a list of named, timestamped records in an embedded
SQLite database. The engine runs behind a message-passing worker; every
command initializes one session, runs its queries and closes it.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("recordbook version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "",
		"Directory containing .recordbook/ (default: $RECORDBOOK_HOME or the home directory)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (json, human)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all log output")
}
