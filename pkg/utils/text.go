// Package utils provides small text, math, and logging helpers shared across
// the ingestion and chat pipelines.
package utils

import "unicode/utf8"

// CutAtRune returns the longest prefix of s holding at most maxBytes bytes
// without splitting a UTF-8 sequence. Article bodies are routinely Japanese,
// so cutting on a raw byte offset would leave a mangled trailing rune.
func CutAtRune(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Truncate shortens s to at most maxLen bytes on a rune boundary, appending
// "..." when anything was dropped. Used for log fields and article previews;
// maxLen <= 0 disables truncation.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return CutAtRune(s, maxLen) + "..."
}
