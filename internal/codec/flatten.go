package codec

import "strings"

// GroupPrefixes is the fixed set of nested-object column groups recognized
// by Unflatten. Keeping the list explicit (rather than inferring nesting
// from underscores) keeps the CSV column set stable across versions.
var GroupPrefixes = []string{"position", "size", "style"}

// Flatten walks obj and returns a single-level map. Keys whose value is a
// plain object recurse with an underscore-joined prefix; arrays and
// scalars are copied as leaves. {"position":{"x":1}} becomes
// {"position_x":1}.
func Flatten(obj map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(obj))
	for key, value := range obj {
		name := key
		if prefix != "" {
			name = prefix + "_" + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range Flatten(nested, name) {
				out[k] = v
			}
			continue
		}
		out[name] = value
	}
	return out
}

// Unflatten reassembles the nested objects that Flatten produced, splitting
// each key on the first underscore after a recognized group prefix. Keys
// outside the recognized groups are copied through unchanged.
//
// Known limitation: a leaf name containing an underscore inside a group
// (e.g. "style_border_color") nests only one level ("border_color" stays a
// single leaf), matching the transform's documented lossiness.
func Unflatten(flat map[string]string) map[string]any {
	out := make(map[string]any, len(flat))
	for key, value := range flat {
		group, leaf, ok := splitGroupKey(key)
		if !ok {
			out[key] = value
			continue
		}
		nested, _ := out[group].(map[string]any)
		if nested == nil {
			nested = make(map[string]any)
			out[group] = nested
		}
		nested[leaf] = value
	}
	return out
}

func splitGroupKey(key string) (group, leaf string, ok bool) {
	for _, g := range GroupPrefixes {
		if strings.HasPrefix(key, g+"_") && len(key) > len(g)+1 {
			return g, key[len(g)+1:], true
		}
	}
	return "", "", false
}
