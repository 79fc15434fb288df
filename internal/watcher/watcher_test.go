package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFiresAfterChangesSettle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	var calls atomic.Int32
	fired := make(chan struct{}, 8)
	w, err := New(path, 50*time.Millisecond, func() {
		calls.Add(1)
		fired <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Stop()
	w.Start()

	// A burst of writes in quick succession collapses into one callback.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("{\"n\": 1}\n"), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}
	// Give any spurious extra timers a chance to fire before counting.
	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	fired := make(chan struct{}, 1)
	w, err := New(path, 20*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Stop()
	w.Start()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "keybindings.json"), []byte("[]\n"), 0644))

	select {
	case <-fired:
		t.Fatal("callback fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSurvivesReplaceOnSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	fired := make(chan struct{}, 8)
	w, err := New(path, 20*time.Millisecond, func() {
		fired <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Stop()
	w.Start()

	// Editors write a temp file and rename it over the target.
	tmp := filepath.Join(dir, ".settings.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("{\"a\": 1}\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired after rename-style save")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	w, err := New(path, 20*time.Millisecond, func() {})
	require.NoError(t, err)
	w.Start()

	require.NoError(t, w.Stop())
	// A second Stop must not panic or deadlock.
	_ = w.Stop()
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "settings.json"), 0, func() {})
	require.Error(t, err)
}
