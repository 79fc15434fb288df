// Package commands provides the CLI commands for inherit-profile.
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Disk-MTH/inherit-profile/internal/logging"
	"github.com/Disk-MTH/inherit-profile/internal/profile"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel   string
	prettyLogs bool
	userDir    string
	hostBin    string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "inherit-profile",
	Short: "inherit-profile - settings inheritance between editor profiles",
	Long: `inherit-profile keeps a profile in sync with the parent profiles it
declares: inherited settings are written into a clearly marked region
of its settings.json without touching locally-authored values or
comments, and extensions, keybindings, tasks, snippets and MCP servers
are propagated from the parents.

Run 'inherit-profile sync <profile>' for a one-shot sync, or
'inherit-profile watch <profile>' to re-sync on every settings change.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env next to the working directory.
		_ = godotenv.Load()
		logging.Init(logging.Config{
			Level:  logging.ParseLevel(logLevel),
			Pretty: prettyLogs,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty-logs", false, "Human-readable log output")
	rootCmd.PersistentFlags().StringVar(&userDir, "user-dir", "", "Editor user directory (defaults to the host's)")
	rootCmd.PersistentFlags().StringVar(&hostBin, "code-bin", "", "Editor binary used for extension installs")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Compute and report without writing anything")

	rootCmd.SetVersionTemplate(fmt.Sprintf("inherit-profile %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(profilesCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveUserDir returns the user directory from flag, environment, or
// the host default.
func resolveUserDir() string {
	if userDir != "" {
		return userDir
	}
	return profile.DefaultUserDir()
}
