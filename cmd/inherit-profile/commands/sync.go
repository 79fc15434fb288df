package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Disk-MTH/inherit-profile/internal/profile"
	"github.com/Disk-MTH/inherit-profile/internal/report"
	"github.com/Disk-MTH/inherit-profile/internal/syncer"
)

var (
	syncEvery          bool
	syncSkipExtensions bool
	syncSkipFiles      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [profile]",
	Short: "Sync a profile with its parent profiles",
	Long: `Sync rewrites the generated region of the profile's settings.json
with the settings inherited from its parents, installs missing
extensions, and propagates keybindings, tasks, snippets and MCP
servers. Without an argument the default profile is synced; with
--all every profile that declares parents is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncEvery, "all", false, "Sync every profile that declares parents")
	syncCmd.Flags().BoolVar(&syncSkipExtensions, "skip-extensions", false, "Do not install extensions")
	syncCmd.Flags().BoolVar(&syncSkipFiles, "skip-files", false, "Do not propagate keybindings/tasks/snippets/MCP files")
}

func runSync(cmd *cobra.Command, args []string) error {
	reg := profile.LoadRegistry(resolveUserDir())
	s := syncer.New(reg, syncer.Options{
		HostBin:        hostBin,
		DryRun:         dryRun,
		SkipExtensions: syncSkipExtensions,
		SkipFiles:      syncSkipFiles,
	})

	var targets []string
	switch {
	case syncEvery:
		for _, p := range reg.All() {
			if s.HasParents(p) {
				targets = append(targets, p.Name)
			}
		}
		if len(targets) == 0 {
			fmt.Println("no profile declares parents, nothing to sync")
			return nil
		}
	case len(args) == 1:
		targets = []string{args[0]}
	default:
		targets = []string{profile.DefaultName}
	}

	colorize := isatty.IsTerminal(os.Stdout.Fd())
	var failed int
	for _, name := range targets {
		st := report.New(name)
		if err := s.Sync(context.Background(), name, st); err != nil {
			fmt.Fprintf(os.Stderr, "sync %s: %v\n", name, err)
			failed++
			continue
		}
		st.Render(os.Stdout, colorize)
	}
	if failed > 0 {
		return fmt.Errorf("%d profile(s) failed to sync", failed)
	}
	return nil
}
