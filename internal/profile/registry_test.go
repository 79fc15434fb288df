package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Disk-MTH/inherit-profile/internal/settings"
	"github.com/tidwall/gjson"
)

func writeStorage(t *testing.T, userDir, content string) {
	t.Helper()
	path := filepath.Join(userDir, "globalStorage", "storage.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadRegistry(t *testing.T) {
	userDir := t.TempDir()
	writeStorage(t, userDir, `{
		"userDataProfiles": [
			{"location": "1a2b3c", "name": "Work"},
			{"location": "d4e5f6", "name": "Go Dev"}
		]
	}`)

	reg := LoadRegistry(userDir)
	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, Profile{Name: DefaultName, Dir: userDir}, all[0])

	work, ok := reg.Lookup("Work")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(userDir, "profiles", "1a2b3c"), work.Dir)

	_, ok = reg.Lookup("Nope")
	assert.False(t, ok)
}

func TestLoadRegistryWithoutStorageFile(t *testing.T) {
	reg := LoadRegistry(t.TempDir())
	all := reg.All()
	require.Len(t, all, 1)
	assert.Equal(t, DefaultName, all[0].Name)
}

func TestLoadRegistrySkipsMalformedEntries(t *testing.T) {
	userDir := t.TempDir()
	writeStorage(t, userDir, `{
		"userDataProfiles": [
			{"location": "ok1", "name": "Good"},
			{"name": "No Location"},
			{"location": "no-name"}
		]
	}`)

	reg := LoadRegistry(userDir)
	assert.Len(t, reg.All(), 2)
}

func TestProfilePaths(t *testing.T) {
	p := Profile{Name: "Work", Dir: "/tmp/u/profiles/x"}
	assert.Equal(t, filepath.Join(p.Dir, "settings.json"), p.SettingsPath())
	assert.Equal(t, filepath.Join(p.Dir, "keybindings.json"), p.KeybindingsPath())
	assert.Equal(t, filepath.Join(p.Dir, "snippets"), p.SnippetsDir())
	assert.Equal(t, filepath.Join(p.Dir, "extensions.json"), p.ExtensionsPath())
}

func TestParentNames(t *testing.T) {
	flat := settings.Flatten(gjson.Parse(`{
		"inherit-profile.profiles": ["Base", "Go Dev"],
		"editor.fontSize": 14
	}`))
	assert.Equal(t, []string{"Base", "Go Dev"}, ParentNames(flat))

	assert.Nil(t, ParentNames(settings.FlatMap{}))

	// A malformed value is ignored rather than failing the sync.
	bad := settings.Flatten(gjson.Parse(`{"inherit-profile.profiles": "oops"}`))
	assert.Empty(t, ParentNames(bad))
}
