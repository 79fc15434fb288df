package settings

import "strings"

// OwnPrefix is the tool's own settings namespace. Keys under it
// configure the inheritance itself and are never inherited.
const OwnPrefix = "inherit-profile."

// Ancestor pairs a parent profile name with its flattened settings.
type Ancestor struct {
	Name     string
	Settings FlatMap
}

// Resolution is the outcome of attributing inheritable keys across an
// ancestor chain.
type Resolution struct {
	// ByParent holds, per ancestor, the keys that ancestor newly
	// contributes. The child's own keys appear under the child's name.
	ByParent map[string]FlatMap
	// Merged is the union of all ancestor buckets: every inheritable
	// key mapped to the value of the nearest ancestor defining it.
	Merged FlatMap
}

// Resolve attributes inheritable keys to ancestors. Ancestors are
// given in configured order, base to derived: entries later in the
// list are closer to the child and take precedence when several define
// the same key. Keys the child defines itself are never inherited, and
// each inherited key lands in exactly one ancestor's bucket.
func Resolve(childName string, child FlatMap, ancestors []Ancestor) Resolution {
	claimed := make(map[string]struct{}, len(child))
	own := make(FlatMap, len(child))
	for k, v := range child {
		claimed[k] = struct{}{}
		own[k] = v
	}

	byParent := map[string]FlatMap{childName: own}
	merged := make(FlatMap)

	// Walk nearest ancestor first so it gets first claim on any key
	// the child does not define.
	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		bucket := byParent[a.Name]
		if bucket == nil {
			bucket = make(FlatMap)
			byParent[a.Name] = bucket
		}
		for k, v := range a.Settings {
			if _, taken := claimed[k]; taken {
				continue
			}
			if strings.HasPrefix(k, OwnPrefix) {
				continue
			}
			claimed[k] = struct{}{}
			bucket[k] = v
			merged[k] = v
		}
	}

	return Resolution{ByParent: byParent, Merged: merged}
}
