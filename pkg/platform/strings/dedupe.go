// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved and case is not
// folded, so "SC" and "sc" stay distinct.
//
// A nil input returns nil; a non-nil input always returns a non-nil slice,
// which lets callers keep the nil-means-absent distinction.
//
// Example:
//
//	DedupeAndTrim([]string{"  farmer ", "student", "farmer", "", "  "})
//	// Returns: []string{"farmer", "student"}
func DedupeAndTrim(values []string) []string {
	if values == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
