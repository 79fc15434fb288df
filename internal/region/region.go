// Package region manages the generated spans of a profile's settings
// document: the per-ancestor header sections this tool owns and may
// rewrite, and the legacy sentinel-delimited block older versions
// produced. Everything outside those spans is user-authored and is
// never disturbed.
package region

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/Disk-MTH/inherit-profile/internal/document"
	"github.com/Disk-MTH/inherit-profile/internal/scanner"
)

// Legacy sentinel block, written by early versions of the tool. It is
// recognized and removed on first rewrite, never written again.
const (
	LegacyStartMarker = "// --------- inherited settings : start ---------"
	LegacyEndMarker   = "// --------- inherited settings : end ---------"
	LegacyWarning1    = "// Do not edit this block by hand."
	LegacyWarning2    = "// It is rewritten on every profile sync."
)

const currentSuffix = " (current)"

var headerPattern = regexp.MustCompile(`^\s*// --- (.+) --- //\s*$`)

// Header returns the section header line for an ancestor profile.
func Header(name string) string {
	return "// --- " + name + " --- //"
}

// CurrentHeader returns the section header line for the child's own
// locally-authored settings.
func CurrentHeader(name string) string {
	return "// --- " + name + currentSuffix + " --- //"
}

// ParseHeader reports whether line is a section header, and if so the
// profile name it carries and whether it is the "(current)" form.
func ParseHeader(line string) (name string, current bool, ok bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false, false
	}
	name = m[1]
	if strings.HasSuffix(name, currentSuffix) {
		return strings.TrimSuffix(name, currentSuffix), true, true
	}
	return name, false, true
}

// Entry is one generated settings line.
type Entry struct {
	Key   string
	Value string // raw JSON, compacted on render
}

// Group is the set of entries contributed by one ancestor.
type Group struct {
	Name    string
	Entries []Entry
}

// Remove deletes every generated span from text: a legacy sentinel
// block if one is present, then every section headed by an ancestor
// name, in either header form. Sections headed by the child's own
// current header or by an unrecognized name are preserved, since their
// content may be user-authored. The result is re-closed and cleaned of
// any comma the removal left dangling, so remove followed by write is
// idempotent. Returned warnings signal best-effort recovery, never
// failure.
func Remove(text, childName string, ancestorNames []string) (string, []string) {
	var warnings []string

	lines := strings.Split(text, "\n")
	lines, legacyWarn := removeLegacyBlock(lines)
	if legacyWarn != "" {
		warnings = append(warnings, legacyWarn)
	}

	ancestors := make(map[string]struct{}, len(ancestorNames))
	for _, n := range ancestorNames {
		ancestors[n] = struct{}{}
	}

	kept := make([]string, 0, len(lines))
	skip := false
	for _, line := range lines {
		if name, current, ok := ParseHeader(line); ok {
			isChild := current && name == childName
			if _, owned := ancestors[name]; owned && !isChild {
				skip = true
				continue
			}
			skip = false
			kept = append(kept, line)
			continue
		}
		if skip {
			continue
		}
		kept = append(kept, line)
	}

	result := strings.Join(kept, "\n")
	result = ensureClosed(result)
	return document.RemoveTrailingComma(result), warnings
}

// removeLegacyBlock excises a paired sentinel block including both
// marker lines. A lone marker is a corruption signal: it is reported
// and nothing is removed.
func removeLegacyBlock(lines []string) ([]string, string) {
	start, end := -1, -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case LegacyStartMarker:
			if start < 0 {
				start = i
			}
		case LegacyEndMarker:
			end = i
		}
	}
	switch {
	case start >= 0 && end >= start:
		out := make([]string, 0, len(lines)-(end-start+1))
		out = append(out, lines[:start]...)
		out = append(out, lines[end+1:]...)
		return out, ""
	case start >= 0 || end >= 0:
		return lines, "unpaired legacy sentinel marker, leaving legacy block untouched"
	}
	return lines, ""
}

// ensureClosed appends a closing brace when section removal consumed
// the document's own one.
func ensureClosed(text string) string {
	pos, ok := scanner.LastMeaningful(text)
	if !ok {
		return "{\n}\n"
	}
	if pos.Kind == scanner.Structural && text[pos.Index] == '}' {
		return text
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + "}\n"
}

// Write rewrites the generated region of text. The child's current
// header is inserted directly after the opening brace when missing, so
// the file always carries a labeled local section. When groups is
// non-empty (ordered base to derived, so output reads generic to
// specific), a block of one header plus one formatted entry line per
// inherited key is inserted immediately before the closing brace, with
// comma handling delegated to the document editor.
func Write(text, childName string, groups []Group) (string, []string) {
	var warnings []string
	indent := document.DetectIndentUnit(text)

	if !containsLine(text, CurrentHeader(childName)) {
		brace := scanner.FirstStructural(text, '{')
		if brace < 0 {
			warnings = append(warnings, "document has no opening brace, rebuilding an empty settings object")
			text = "{\n}\n"
			brace = 0
		}
		rest := text[brace+1:]
		insertion := "\n" + indent + CurrentHeader(childName)
		if !strings.HasPrefix(rest, "\n") {
			insertion += "\n"
		}
		text = text[:brace+1] + insertion + rest
	}

	if len(groups) == 0 {
		return text, warnings
	}

	before, after := document.SplitAtFinalClose(text)
	merged, fallback := document.InsertBeforeClose(before, renderBlock(groups, indent))
	if fallback {
		warnings = append(warnings, "document has no content before its closing brace, appending inherited block as-is")
	}
	return merged + after, warnings
}

// renderBlock formats the inherited sections: one header line per
// group, one "key": value line per entry, commas on every entry except
// the very last of the very last group, and a blank separator line
// between groups.
func renderBlock(groups []Group, indent string) string {
	var b strings.Builder
	for gi, g := range groups {
		b.WriteString(indent)
		b.WriteString(Header(g.Name))
		b.WriteString("\n")
		for ei, e := range g.Entries {
			b.WriteString(indent)
			b.WriteString(strconv.Quote(e.Key))
			b.WriteString(": ")
			b.WriteString(strings.TrimSpace(string(pretty.Ugly([]byte(e.Value)))))
			if gi != len(groups)-1 || ei != len(g.Entries)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		if gi != len(groups)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func containsLine(text, want string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == want {
			return true
		}
	}
	return false
}
