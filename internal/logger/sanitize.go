package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength caps URL paths in log entries.
	MaxPathLength = 500
	// MaxErrorMessageLength caps error strings in log entries.
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength caps other free-form strings in log entries.
	MaxGeneralStringLength = 2000
)

// SanitizePath prepares a request path for logging: valid UTF-8, no control
// characters, bounded length.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeError prepares an error for logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeString strips control characters, repairs UTF-8 and truncates to
// maxLength. User-supplied strings must pass through here before logging to
// prevent log injection.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}
