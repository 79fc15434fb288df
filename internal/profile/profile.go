// Package profile models the editor's named configuration profiles
// and reads the external registry that declares them. The registry is
// read-only to the sync engine.
package profile

import (
	"path/filepath"

	"github.com/Disk-MTH/inherit-profile/internal/settings"
)

// DefaultName is the name of the editor's root profile, which lives
// directly in the user directory rather than under profiles/.
const DefaultName = "Default"

// ParentsKey is the settings key declaring a profile's parents, an
// array of profile names ordered base to derived.
const ParentsKey = "inherit-profile.profiles"

// Profile is a named profile and the directory holding its files.
type Profile struct {
	Name string
	Dir  string
}

// SettingsPath returns the profile's settings document.
func (p Profile) SettingsPath() string {
	return filepath.Join(p.Dir, "settings.json")
}

// KeybindingsPath returns the profile's keybindings document.
func (p Profile) KeybindingsPath() string {
	return filepath.Join(p.Dir, "keybindings.json")
}

// TasksPath returns the profile's tasks document.
func (p Profile) TasksPath() string {
	return filepath.Join(p.Dir, "tasks.json")
}

// McpPath returns the profile's MCP server configuration.
func (p Profile) McpPath() string {
	return filepath.Join(p.Dir, "mcp.json")
}

// SnippetsDir returns the profile's snippets directory.
func (p Profile) SnippetsDir() string {
	return filepath.Join(p.Dir, "snippets")
}

// ExtensionsPath returns the profile's extension inventory.
func (p Profile) ExtensionsPath() string {
	return filepath.Join(p.Dir, "extensions.json")
}

// ParentNames extracts the configured parent list from a profile's
// flattened settings, in declared order. Absent or malformed values
// yield an empty list.
func ParentNames(flat settings.FlatMap) []string {
	v, ok := flat[ParentsKey]
	if !ok || !v.IsArray() {
		return nil
	}
	var names []string
	for _, e := range v.Array() {
		if name := e.String(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
