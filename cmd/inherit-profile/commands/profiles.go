package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Disk-MTH/inherit-profile/internal/fsio"
	"github.com/Disk-MTH/inherit-profile/internal/profile"
	"github.com/Disk-MTH/inherit-profile/internal/settings"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List known profiles and their parent chains",
	RunE:  runProfiles,
}

func runProfiles(cmd *cobra.Command, args []string) error {
	reg := profile.LoadRegistry(resolveUserDir())

	for _, p := range reg.All() {
		parents := "-"
		if doc, err := fsio.ReadJSONC(p.SettingsPath()); err == nil {
			if names := profile.ParentNames(settings.Flatten(doc)); len(names) > 0 {
				parents = strings.Join(names, " <- ")
			}
		}
		fmt.Printf("%-24s parents: %-40s %s\n", p.Name, parents, p.Dir)
	}
	return nil
}
