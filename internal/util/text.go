package util

import "strings"

// TruncateWords caps text at maxWords whitespace-separated words. Truncated
// text gets an ellipsis marker so prompts show the cut happened.
func TruncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// TruncateForLog shortens raw model output for diagnostic log lines.
func TruncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
