package codec

import "strings"

// JoinIDs serializes an id list as a semicolon-joined string. An empty or
// nil list serializes to the empty string.
func JoinIDs(ids []string) string {
	return strings.Join(ids, ";")
}

// SplitIDs is the inverse of JoinIDs. Splitting an empty string yields an
// empty list, not a list containing one empty string; empty entries from
// stray separators are dropped.
func SplitIDs(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ";")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
