package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q, want empty", got)
	}

	err := errors.New("connection refused\x1b[31m injected")
	got := SanitizeError(err)
	if strings.ContainsRune(got, '\x1b') {
		t.Errorf("SanitizeError left control character in %q", got)
	}
	if !strings.Contains(got, "connection refused") {
		t.Errorf("SanitizeError(%v) = %q, lost message text", err, got)
	}

	long := errors.New(strings.Repeat("x", MaxErrorMessageLength+100))
	if got := SanitizeError(long); len(got) > MaxErrorMessageLength+3 {
		t.Errorf("SanitizeError did not truncate, got %d chars", len(got))
	}
}

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"empty", "", 100, ""},
		{"plain", "hello world", 100, "hello world"},
		{"strips control", "a\x00b\x07c", 100, "abc"},
		{"keeps whitespace", "a\tb\nc", 100, "a\tb\nc"},
		{"truncates", "abcdef", 3, "abc..."},
		{"invalid utf8 repaired", "ok\xffok", 100, "okok"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.input, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	path := "/api/conversations/1/messages"
	if got := SanitizePath(path); got != path {
		t.Errorf("SanitizePath(%q) = %q", path, got)
	}

	long := "/" + strings.Repeat("a", MaxPathLength+50)
	if got := SanitizePath(long); len(got) > MaxPathLength+3 {
		t.Errorf("SanitizePath did not truncate, got %d chars", len(got))
	}
}
