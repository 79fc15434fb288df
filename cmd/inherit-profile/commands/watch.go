package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Disk-MTH/inherit-profile/internal/logging"
	"github.com/Disk-MTH/inherit-profile/internal/profile"
	"github.com/Disk-MTH/inherit-profile/internal/report"
	"github.com/Disk-MTH/inherit-profile/internal/syncer"
	"github.com/Disk-MTH/inherit-profile/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [profile]",
	Short: "Sync a profile and re-sync whenever its settings change",
	Long: `Watch runs an initial sync of the profile, then watches its
settings.json and re-syncs after each change burst settles. Stop with
Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Settle time after the last change before re-syncing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	name := profile.DefaultName
	if len(args) == 1 {
		name = args[0]
	}

	reg := profile.LoadRegistry(resolveUserDir())
	child, ok := reg.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown profile: %s", name)
	}
	s := syncer.New(reg, syncer.Options{HostBin: hostBin, DryRun: dryRun})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	colorize := isatty.IsTerminal(os.Stdout.Fd())
	runOnce := func() {
		st := report.New(name)
		if err := s.Sync(ctx, name, st); err != nil {
			logging.Error().Err(err).Str("profile", name).Msg("sync failed")
			return
		}
		st.Render(os.Stdout, colorize)
	}
	runOnce()

	w, err := watcher.New(child.SettingsPath(), watchDebounce, runOnce)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", child.SettingsPath(), err)
	}
	w.Start()
	defer w.Stop()

	logging.Info().Str("profile", name).Str("path", child.SettingsPath()).Msg("watching for settings changes")
	<-ctx.Done()
	return nil
}
