package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Disk-MTH/inherit-profile/internal/fsio"
	"github.com/Disk-MTH/inherit-profile/internal/profile"
	"github.com/Disk-MTH/inherit-profile/internal/region"
	"github.com/Disk-MTH/inherit-profile/internal/report"
)

// newUserDir builds a user directory with the default profile as the
// child and one registered parent profile named P.
func newUserDir(t *testing.T, childSettings, parentSettings string) string {
	t.Helper()
	userDir := t.TempDir()

	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write(filepath.Join(userDir, "settings.json"), childSettings)
	write(filepath.Join(userDir, "globalStorage", "storage.json"),
		`{"userDataProfiles": [{"location": "p1", "name": "P"}]}`)
	if parentSettings != "" {
		write(filepath.Join(userDir, "profiles", "p1", "settings.json"), parentSettings)
	}
	return userDir
}

func newTestSyncer(userDir string, opts Options) *Syncer {
	opts.SkipExtensions = true
	return New(profile.LoadRegistry(userDir), opts)
}

func TestSyncInheritsParentSettings(t *testing.T) {
	child := "{\n" +
		"    \"inherit-profile.profiles\": [\"P\"],\n" +
		"    \"editor.fontFamily\": \"Fira Code\"\n" +
		"}\n"
	parent := `{
		"editor.fontSize": 20,
		"files.autoSave": "afterDelay",
		"editor.fontFamily": "Parent Font"
	}`
	userDir := newUserDir(t, child, parent)
	s := newTestSyncer(userDir, Options{})

	st := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

	settingsPath := filepath.Join(userDir, "settings.json")
	doc, err := fsio.ReadJSONC(settingsPath)
	require.NoError(t, err, "synced settings must stay parseable")

	assert.Equal(t, "Fira Code", doc.Get(`editor\.fontFamily`).String(), "local value must survive")
	assert.EqualValues(t, 20, doc.Get(`editor\.fontSize`).Int())
	assert.Equal(t, "afterDelay", doc.Get(`files\.autoSave`).String())

	assert.Equal(t, 2, st.Inherited["P"], "shadowed fontFamily must not count")
	assert.True(t, st.SettingsChanged)

	// A second run with unchanged inputs is byte-identical.
	first, err := fsio.ReadText(settingsPath)
	require.NoError(t, err)
	st2 := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st2))
	second, err := fsio.ReadText(settingsPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, st2.SettingsChanged)
}

func TestSyncRepeatedRunsAreStable(t *testing.T) {
	child := "{\n" +
		"    \"inherit-profile.profiles\": [\"P\"],\n" +
		"    \"editor.fontFamily\": \"Fira Code\"\n" +
		"}\n"
	parent := `{"editor.fontSize": 20, "files.autoSave": "afterDelay"}`
	userDir := newUserDir(t, child, parent)
	s := newTestSyncer(userDir, Options{})
	settingsPath := filepath.Join(userDir, "settings.json")

	// Keys inherited on an earlier run live in the child's file. They
	// must not count as the child's own on the next run, or the parents
	// would contribute nothing and the inherited block would vanish.
	var prev string
	for run := 1; run <= 4; run++ {
		st := report.New(profile.DefaultName)
		require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

		text, err := fsio.ReadText(settingsPath)
		require.NoError(t, err)
		assert.Contains(t, text, region.Header("P"), "run %d lost the ancestor header", run)
		assert.Contains(t, text, `"editor.fontSize": 20`, "run %d lost an inherited key", run)
		assert.Contains(t, text, `"files.autoSave": "afterDelay"`, "run %d lost an inherited key", run)
		assert.Equal(t, 2, st.Inherited["P"], "run %d attributed the wrong key count", run)

		if run > 1 {
			assert.Equal(t, prev, text, "run %d changed a settled document", run)
			assert.False(t, st.SettingsChanged, "run %d reported a rewrite of a settled document", run)
		}
		prev = text
	}
}

func TestSyncChildOverridesParent(t *testing.T) {
	child := "{\n" +
		"    \"inherit-profile.profiles\": [\"P\"],\n" +
		"    \"editor.fontSize\": 14\n" +
		"}\n"
	parent := `{"editor.fontSize": 20}`
	userDir := newUserDir(t, child, parent)
	s := newTestSyncer(userDir, Options{})

	st := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

	text, err := fsio.ReadText(filepath.Join(userDir, "settings.json"))
	require.NoError(t, err)
	assert.Contains(t, text, `"editor.fontSize": 14`)
	assert.NotContains(t, text, `"editor.fontSize": 20`)
	assert.Equal(t, 0, st.Inherited["P"])
}

func TestSyncMissingParentIsWarningNotFailure(t *testing.T) {
	child := "{\n" +
		"    \"inherit-profile.profiles\": [\"Gone\", \"P\"],\n" +
		"    \"editor.fontFamily\": \"Fira Code\"\n" +
		"}\n"
	parent := `{"editor.fontSize": 20}`
	userDir := newUserDir(t, child, parent)
	s := newTestSyncer(userDir, Options{})

	st := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

	require.NotEmpty(t, st.Warnings)
	assert.Contains(t, st.Warnings[0], `"Gone"`)

	doc, err := fsio.ReadJSONC(filepath.Join(userDir, "settings.json"))
	require.NoError(t, err)
	assert.EqualValues(t, 20, doc.Get(`editor\.fontSize`).Int(), "the readable parent still contributes")
}

func TestSyncUnparseableChildSkipsRewrite(t *testing.T) {
	child := `{ "editor.fontSize": `
	userDir := newUserDir(t, child, `{"x": 1}`)
	s := newTestSyncer(userDir, Options{})

	st := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

	text, err := fsio.ReadText(filepath.Join(userDir, "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, child, text, "an unparseable child document is never rewritten")
	require.NotEmpty(t, st.Warnings)
	assert.Contains(t, st.Warnings[0], "not parseable")
}

func TestSyncUnknownProfile(t *testing.T) {
	userDir := newUserDir(t, "{}\n", "")
	s := newTestSyncer(userDir, Options{})

	err := s.Sync(context.Background(), "Nope", report.New("Nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	child := "{\n    \"inherit-profile.profiles\": [\"P\"]\n}\n"
	parent := `{"editor.fontSize": 20}`
	userDir := newUserDir(t, child, parent)
	s := newTestSyncer(userDir, Options{DryRun: true})

	st := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

	text, err := fsio.ReadText(filepath.Join(userDir, "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, child, text)
	assert.True(t, st.SettingsChanged, "dry run still reports what would change")
}

func TestSyncCopiesSnippets(t *testing.T) {
	child := "{\n    \"inherit-profile.profiles\": [\"P\"]\n}\n"
	userDir := newUserDir(t, child, `{}`)
	snippet := filepath.Join(userDir, "profiles", "p1", "snippets", "go.code-snippets")
	require.NoError(t, os.MkdirAll(filepath.Dir(snippet), 0755))
	require.NoError(t, os.WriteFile(snippet, []byte(`{"Println": {"prefix": "pln"}}`), 0644))

	s := newTestSyncer(userDir, Options{})
	st := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

	copied, err := fsio.ReadText(filepath.Join(userDir, "snippets", "go.code-snippets"))
	require.NoError(t, err)
	assert.Contains(t, copied, "Println")
	assert.Contains(t, st.CopiedFiles, "snippets/go.code-snippets (from P)")
}

func TestSyncMergesKeybindings(t *testing.T) {
	child := "{\n    \"inherit-profile.profiles\": [\"P\"]\n}\n"
	userDir := newUserDir(t, child, `{}`)

	childKb := filepath.Join(userDir, "keybindings.json")
	require.NoError(t, os.WriteFile(childKb, []byte(`[
		{"key": "ctrl+k", "command": "local.thing"}
	]`), 0644))
	parentKb := filepath.Join(userDir, "profiles", "p1", "keybindings.json")
	require.NoError(t, os.WriteFile(parentKb, []byte(`[
		{"key": "ctrl+k", "command": "local.thing", "when": "differs"},
		{"key": "ctrl+j", "command": "parent.thing"}
	]`), 0644))

	s := newTestSyncer(userDir, Options{})
	st := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

	doc, err := fsio.ReadJSONC(childKb)
	require.NoError(t, err)
	require.True(t, doc.IsArray())
	entries := doc.Array()
	require.Len(t, entries, 2, "child binding wins, parent-only binding is appended")
	assert.Equal(t, "local.thing", entries[0].Get("command").String())
	assert.False(t, entries[0].Get("when").Exists(), "the child's variant of the shared binding is kept")
	assert.Equal(t, "parent.thing", entries[1].Get("command").String())
}

func TestSyncMergesMcpServers(t *testing.T) {
	child := "{\n    \"inherit-profile.profiles\": [\"P\"]\n}\n"
	userDir := newUserDir(t, child, `{}`)
	parentMcp := filepath.Join(userDir, "profiles", "p1", "mcp.json")
	require.NoError(t, os.WriteFile(parentMcp, []byte(`{
		"servers": {"docs": {"command": "docs-mcp"}}
	}`), 0644))

	s := newTestSyncer(userDir, Options{})
	st := report.New(profile.DefaultName)
	require.NoError(t, s.Sync(context.Background(), profile.DefaultName, st))

	doc, err := fsio.ReadJSONC(filepath.Join(userDir, "mcp.json"))
	require.NoError(t, err)
	assert.Equal(t, "docs-mcp", doc.Get("servers.docs.command").String())
}

func TestHasParents(t *testing.T) {
	child := "{\n    \"inherit-profile.profiles\": [\"P\"]\n}\n"
	userDir := newUserDir(t, child, `{}`)
	s := newTestSyncer(userDir, Options{})

	reg := profile.LoadRegistry(userDir)
	def, ok := reg.Lookup(profile.DefaultName)
	require.True(t, ok)
	assert.True(t, s.HasParents(def))

	parent, ok := reg.Lookup("P")
	require.True(t, ok)
	assert.False(t, s.HasParents(parent))
}
