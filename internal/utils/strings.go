package utils

import "strings"

// SplitList splits a comma-separated list of identifiers, trimming whitespace and dropping
// empty and repeated entries. Order of first appearance is kept; nil for an empty list.
// Used for rate codes in the environment and index lists in query strings.
func SplitList(s string) []string {
	var result []string
	seen := make(map[string]bool)
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		result = append(result, trimmed)
	}
	return result
}
