// Package settings implements the inheritance engine over flattened
// configuration maps: flattening of nested settings documents, ordered
// merging, and by-ancestor attribution of inherited keys.
package settings

import (
	"github.com/tidwall/gjson"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FlatMap maps a dotted settings path (e.g. "editor.fontSize") to its
// leaf value. Arrays and scalars are leaves; no key maps to an object.
type FlatMap map[string]gjson.Result

// maxDepth bounds recursion on pathological nesting. Input is parsed
// from text, so true cycles cannot occur; anything deeper than this is
// kept as an opaque leaf.
const maxDepth = 128

// Flatten converts a parsed settings document into a FlatMap. Object
// members are recursed with dot-joined keys; arrays are opaque leaves
// and are not descended into, even when they contain objects.
func Flatten(doc gjson.Result) FlatMap {
	out := make(FlatMap)
	flattenInto(out, doc, "", 0)
	return out
}

func flattenInto(out FlatMap, v gjson.Result, prefix string, depth int) {
	if !v.IsObject() || depth >= maxDepth {
		if prefix != "" {
			out[prefix] = v
		}
		return
	}
	v.ForEach(func(key, value gjson.Result) bool {
		path := key.String()
		if prefix != "" {
			path = prefix + "." + path
		}
		flattenInto(out, value, path, depth+1)
		return true
	})
}

// Merge unions the given maps left to right; keys of later maps
// override earlier ones. The inputs are not modified.
func Merge(maps ...FlatMap) FlatMap {
	out := make(FlatMap)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Subtract returns the entries of source whose keys are absent from
// exclude.
func Subtract(source, exclude FlatMap) FlatMap {
	out := make(FlatMap)
	for k, v := range source {
		if _, shadowed := exclude[k]; !shadowed {
			out[k] = v
		}
	}
	return out
}

var collator = collate.New(language.English)

// SortedKeys returns the keys of m in ascending collation order, for
// deterministic and readable output.
func SortedKeys(m FlatMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	collator.SortStrings(keys)
	return keys
}
