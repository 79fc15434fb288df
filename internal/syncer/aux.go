package syncer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/Disk-MTH/inherit-profile/internal/fsio"
	"github.com/Disk-MTH/inherit-profile/internal/logging"
	"github.com/Disk-MTH/inherit-profile/internal/profile"
	"github.com/Disk-MTH/inherit-profile/internal/report"
)

// syncFiles propagates the auxiliary profile files. These are plain
// array/map merges over whole documents, nothing here needs the
// comment-preserving text surgery the settings document gets.
func (s *Syncer) syncFiles(child profile.Profile, parents []profile.Profile, st *report.State) {
	s.mergeKeybindings(child, parents, st)
	s.copyTasks(child, parents, st)
	s.copySnippets(child, parents, st)
	s.mergeMcpServers(child, parents, st)
}

// mergeKeybindings appends parent keybindings the child does not
// define. A binding is identified by its (key, command) pair; the
// child's entry wins, and among parents the nearest one does.
func (s *Syncer) mergeKeybindings(child profile.Profile, parents []profile.Profile, st *report.State) {
	var entries []json.RawMessage
	seen := make(map[string]struct{})

	collect := func(doc gjson.Result) int {
		added := 0
		doc.ForEach(func(_, e gjson.Result) bool {
			id := e.Get("key").String() + "\x00" + e.Get("command").String()
			if _, dup := seen[id]; dup {
				return true
			}
			seen[id] = struct{}{}
			entries = append(entries, json.RawMessage(e.Raw))
			added++
			return true
		})
		return added
	}

	childDoc, err := fsio.ReadJSONC(child.KeybindingsPath())
	switch {
	case err == nil:
		collect(childDoc)
	case fsio.IsNotFound(err):
		// No local keybindings yet.
	default:
		st.Warnf("keybindings for %q are not parseable, skipping keybindings merge: %v", child.Name, err)
		return
	}

	inherited := 0
	for i := len(parents) - 1; i >= 0; i-- {
		doc, err := fsio.ReadJSONC(parents[i].KeybindingsPath())
		if err != nil {
			continue
		}
		inherited += collect(doc)
	}
	if inherited == 0 {
		return
	}

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		st.Warnf("failed to encode merged keybindings for %q: %v", child.Name, err)
		return
	}
	if !s.opts.DryRun {
		if err := fsio.WriteText(child.KeybindingsPath(), string(data)+"\n"); err != nil {
			st.Warnf("failed to write keybindings for %q: %v", child.Name, err)
			return
		}
	}
	st.CopiedFiles = append(st.CopiedFiles, fmt.Sprintf("keybindings.json (%d inherited)", inherited))
}

// copyTasks copies the nearest parent's tasks.json, only when the
// child has none of its own.
func (s *Syncer) copyTasks(child profile.Profile, parents []profile.Profile, st *report.State) {
	if fsio.Exists(child.TasksPath()) {
		return
	}
	for i := len(parents) - 1; i >= 0; i-- {
		src := parents[i].TasksPath()
		if !fsio.Exists(src) {
			continue
		}
		if !s.opts.DryRun {
			if err := fsio.CopyFile(src, child.TasksPath()); err != nil {
				st.Warnf("failed to copy tasks.json from %q: %v", parents[i].Name, err)
				return
			}
		}
		st.CopiedFiles = append(st.CopiedFiles, fmt.Sprintf("tasks.json (from %s)", parents[i].Name))
		return
	}
}

// copySnippets copies parent snippet files whose filename the child
// does not already have. Nearest parent wins on filename collisions.
func (s *Syncer) copySnippets(child profile.Profile, parents []profile.Profile, st *report.State) {
	for i := len(parents) - 1; i >= 0; i-- {
		p := parents[i]
		pattern := filepath.Join(p.SnippetsDir(), "*.{json,code-snippets}")
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			logging.Debug().Err(err).Str("profile", p.Name).Msg("snippet glob failed")
			continue
		}
		for _, src := range matches {
			dst := filepath.Join(child.SnippetsDir(), filepath.Base(src))
			if fsio.Exists(dst) {
				continue
			}
			if !s.opts.DryRun {
				if err := fsio.CopyFile(src, dst); err != nil {
					st.Warnf("failed to copy snippet %s from %q: %v", filepath.Base(src), p.Name, err)
					continue
				}
			}
			st.CopiedFiles = append(st.CopiedFiles, fmt.Sprintf("snippets/%s (from %s)", filepath.Base(src), p.Name))
		}
	}
}

// mergeMcpServers adds parent MCP server definitions the child lacks
// under the "servers" map. The child's definitions always win.
func (s *Syncer) mergeMcpServers(child profile.Profile, parents []profile.Profile, st *report.State) {
	out := "{}"
	var childDoc gjson.Result
	if raw, err := fsio.ReadText(child.McpPath()); err == nil {
		doc, perr := fsio.ParseJSONC([]byte(raw))
		if perr != nil {
			st.Warnf("mcp.json for %q is not parseable, skipping MCP merge: %v", child.Name, perr)
			return
		}
		childDoc = doc
		out = doc.Raw
	} else if !fsio.IsNotFound(err) {
		st.Warnf("failed to read mcp.json for %q: %v", child.Name, err)
		return
	}

	added := 0
	for i := len(parents) - 1; i >= 0; i-- {
		doc, err := fsio.ReadJSONC(parents[i].McpPath())
		if err != nil {
			continue
		}
		doc.Get("servers").ForEach(func(name, server gjson.Result) bool {
			path := "servers." + escapePathKey(name.String())
			if childDoc.Get(path).Exists() || gjson.Get(out, path).Exists() {
				return true
			}
			next, err := sjson.SetRaw(out, path, server.Raw)
			if err != nil {
				st.Warnf("failed to merge MCP server %q: %v", name.String(), err)
				return true
			}
			out = next
			added++
			return true
		})
	}
	if added == 0 {
		return
	}

	if !s.opts.DryRun {
		formatted := string(pretty.PrettyOptions([]byte(out), &pretty.Options{Indent: "    "}))
		if err := fsio.WriteText(child.McpPath(), formatted); err != nil {
			st.Warnf("failed to write mcp.json for %q: %v", child.Name, err)
			return
		}
	}
	st.CopiedFiles = append(st.CopiedFiles, fmt.Sprintf("mcp.json (%d servers inherited)", added))
}

// escapePathKey escapes gjson/sjson path metacharacters in a literal
// map key.
func escapePathKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(key)
}
