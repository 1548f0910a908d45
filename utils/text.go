package utils

import (
	"strings"
)

// TruncateWords keeps the first limit words of text and appends "..." when
// anything was cut. Text within the limit is returned unchanged.
func TruncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ") + "..."
}

// IsSafeRedirect accepts only same-site absolute paths such as "/blog".
func IsSafeRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") {
		return false
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	return !strings.ContainsAny(target, "\r\n")
}
