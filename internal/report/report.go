// Package report collects the outcome of one sync run into an
// explicit, caller-owned state record threaded through the sync call
// chain. Concurrent syncs of different profiles each carry their own
// State, so there is no process-wide report to cross-talk through.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/oklog/ulid/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// State accumulates everything one sync run did to one profile.
type State struct {
	RunID     string
	Profile   string
	StartedAt time.Time

	// Inherited maps ancestor name to the number of keys attributed
	// to it; Order preserves the configured base-to-derived order.
	Inherited map[string]int
	Order     []string

	Warnings []string

	InstalledExtensions []string
	FailedExtensions    map[string]string

	CopiedFiles []string

	SettingsChanged bool
	Diff            string
	Additions       int
	Deletions       int
}

// New creates the state record for a sync run against one profile.
func New(profileName string) *State {
	return &State{
		RunID:            ulid.Make().String(),
		Profile:          profileName,
		StartedAt:        time.Now(),
		Inherited:        make(map[string]int),
		FailedExtensions: make(map[string]string),
	}
}

// Warnf records a formatted warning.
func (s *State) Warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// RecordInherited records how many keys one ancestor contributed.
func (s *State) RecordInherited(ancestor string, count int) {
	if _, seen := s.Inherited[ancestor]; !seen {
		s.Order = append(s.Order, ancestor)
	}
	s.Inherited[ancestor] += count
}

// RecordDiff stores a unified diff of the settings rewrite along with
// added and deleted line counts.
func (s *State) RecordDiff(before, after string) {
	if before == after {
		return
	}
	s.SettingsChanged = true

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.Additions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			s.Deletions += countLines(d.Text)
		}
	}

	patches := dmp.PatchMake(before, diffs)
	s.Diff = dmp.PatchToText(patches)
}

// TotalInherited returns the number of keys inherited across all
// ancestors.
func (s *State) TotalInherited() int {
	total := 0
	for _, n := range s.Inherited {
		total += n
	}
	return total
}

// Render writes a human-readable summary of the run.
func (s *State) Render(w io.Writer, colorize bool) {
	title := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)
	dim := color.New(color.Faint)
	if !colorize {
		for _, c := range []*color.Color{title, ok, warn, bad, dim} {
			c.DisableColor()
		}
	}

	title.Fprintf(w, "Profile %q synced in %s\n", s.Profile, time.Since(s.StartedAt).Round(time.Millisecond))
	dim.Fprintf(w, "run %s\n", s.RunID)

	if len(s.Order) == 0 {
		fmt.Fprintln(w, "no parent profiles configured")
	}
	for _, name := range s.Order {
		ok.Fprintf(w, "  %-24s %d inherited\n", name, s.Inherited[name])
	}

	if s.SettingsChanged {
		ok.Fprintf(w, "settings.json updated (+%d -%d lines)\n", s.Additions, s.Deletions)
	} else {
		fmt.Fprintln(w, "settings.json unchanged")
	}

	for _, f := range s.CopiedFiles {
		fmt.Fprintf(w, "copied %s\n", f)
	}
	for _, id := range s.InstalledExtensions {
		ok.Fprintf(w, "installed extension %s\n", id)
	}
	for _, id := range sortedKeys(s.FailedExtensions) {
		bad.Fprintf(w, "failed to install %s: %s\n", id, s.FailedExtensions[id])
	}
	for _, msg := range s.Warnings {
		warn.Fprintf(w, "warning: %s\n", msg)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, c := range text {
		if c == '\n' {
			n++
		}
	}
	if text[len(text)-1] != '\n' {
		n++
	}
	return n
}
