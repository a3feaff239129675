package util

import (
	"strings"
	"testing"
)

func TestTruncateWords_UnderLimit(t *testing.T) {
	text := "one two three"
	got := TruncateWords(text, 10)
	if got != text {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}

func TestTruncateWords_OverLimit(t *testing.T) {
	words := make([]string, 7000)
	for i := range words {
		words[i] = "w"
	}
	text := strings.Join(words, " ")

	got := TruncateWords(text, 6000)

	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis marker, got suffix %q", got[len(got)-10:])
	}
	if n := WordCount(strings.TrimSuffix(got, "...")); n != 6000 {
		t.Fatalf("expected exactly 6000 words after truncation, got %d", n)
	}
}

func TestTruncateWords_ExactLimit(t *testing.T) {
	text := "a b c d e"
	got := TruncateWords(text, 5)
	if got != text {
		t.Fatalf("expected text unchanged at exact limit, got %q", got)
	}
}

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "short", input: "abc", max: 10, want: "abc"},
		{name: "exact", input: "abcde", max: 5, want: "abcde"},
		{name: "truncated", input: "abcdefgh", max: 5, want: "abcde..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateForLog(tc.input, tc.max); got != tc.want {
				t.Fatalf("TruncateForLog() = %q, want %q", got, tc.want)
			}
		})
	}
}
