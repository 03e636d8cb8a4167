package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// UniqueProjectName resolves a name collision against the existing project
// names deterministically. When the base name is free it is used as-is;
// otherwise the result is "<name> (n)" with the smallest free n >= 2.
// Existing "<name> (n)" entries count as taken slots, so importing the
// same archive repeatedly yields "<name>", "<name> (2)", "<name> (3)", ...
func UniqueProjectName(name string, existing []string) string {
	baseTaken := false
	taken := make(map[int]bool)

	for _, e := range existing {
		if e == name {
			baseTaken = true
			continue
		}
		if n, ok := suffixNumber(name, e); ok {
			taken[n] = true
		}
	}

	if !baseTaken {
		return name
	}
	for n := 2; ; n++ {
		if !taken[n] {
			return fmt.Sprintf("%s (%d)", name, n)
		}
	}
}

// suffixNumber reports whether candidate is "<base> (n)" and returns n.
func suffixNumber(base, candidate string) (int, bool) {
	rest, ok := strings.CutPrefix(candidate, base+" (")
	if !ok {
		return 0, false
	}
	digits, ok := strings.CutSuffix(rest, ")")
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 2 {
		return 0, false
	}
	return n, true
}
