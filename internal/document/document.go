// Package document provides surgical edit primitives for
// JSON-with-comments text. Edits are anchored on the lexical scanner
// so characters inside comments and string literals are never touched.
package document

import (
	"strings"

	"github.com/Disk-MTH/inherit-profile/internal/scanner"
)

// DefaultIndent is used when a document contains no indented line.
const DefaultIndent = "    "

// RemoveTrailingComma deletes a dangling comma at the end of the
// document body: either the last meaningful character itself, or a
// comma directly preceding a closing brace or bracket. Commas inside
// comments or strings are left alone.
func RemoveTrailingComma(text string) string {
	ps := scanner.LastTwoMeaningful(text)
	if len(ps) == 0 {
		return text
	}
	last := ps[0]
	if last.Kind == scanner.Structural && text[last.Index] == ',' {
		return text[:last.Index] + text[last.Index+1:]
	}
	if len(ps) == 2 && last.Kind == scanner.Structural &&
		(text[last.Index] == '}' || text[last.Index] == ']') {
		prev := ps[1]
		if prev.Kind == scanner.Structural && text[prev.Index] == ',' {
			return text[:prev.Index] + text[prev.Index+1:]
		}
	}
	return text
}

// SplitAtFinalClose splits the document at its last '}' character:
// before excludes the brace, after starts with it. A document without
// any '}' yields a minimal empty-object shell so callers never operate
// on an unparseable fragment. Callers must guarantee the document's
// top-level shape is "{ ... }" for the split to be meaningful.
func SplitAtFinalClose(text string) (before, after string) {
	idx := strings.LastIndexByte(text, '}')
	if idx < 0 {
		return "{\n", "}\n"
	}
	return text[:idx], text[idx:]
}

// DetectIndentUnit infers the indentation unit from the first indented
// line of the document: a tab, or a run of spaces of the observed
// width. Defaults to four spaces.
func DetectIndentUnit(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == '\t' {
			return "\t"
		}
		if line[0] == ' ' {
			n := 0
			for n < len(line) && line[n] == ' ' {
				n++
			}
			return strings.Repeat(" ", n)
		}
	}
	return DefaultIndent
}

// InsertBeforeClose appends block to before, inserting a separating
// comma when the last meaningful character requires one. The comma is
// placed immediately after that character rather than at the end of
// the text, so trailing line comments survive the edit. The returned
// bool reports the malformed-input fallback: before held no meaningful
// character at all and block was appended to a normalized remainder.
func InsertBeforeClose(before, block string) (string, bool) {
	pos, ok := scanner.LastMeaningful(before)
	if !ok {
		return strings.TrimRight(before, "\n") + "\n" + block, true
	}

	needComma := true
	if pos.Kind == scanner.Structural {
		if c := before[pos.Index]; c == '{' || c == ',' {
			needComma = false
		}
	}
	if needComma {
		before = before[:pos.Index+1] + "," + before[pos.Index+1:]
	}
	if !strings.HasSuffix(before, "\n") {
		before += "\n"
	}
	return before + block, false
}
