// Package util provides small string helpers shared by the command handlers.
package util

import (
	"slices"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg normalizes one command argument as sent by the host: surrounding
// whitespace and quotes are removed and escaped quotes unescaped.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// Arg returns the cleaned argument at index i, or "" when absent.
func Arg(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return CleanArg(args[i])
}

// Contains reports whether str is in slice.
func Contains(slice []string, str string) bool {
	return slices.Contains(slice, str)
}
