package logger

import (
	"log/slog"
	"strings"
)

// Attribute keys containing one of these are never logged in clear.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
}

const redactedValue = "***REDACTED***"

// Redact is a slog ReplaceAttr hook that hides secret-looking attributes,
// descending into groups.
func Redact(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = Redact(nil, attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if !IsSensitiveKey(a.Key) {
		return a
	}
	if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
		return a
	}
	return slog.String(a.Key, redactedValue)
}

// IsSensitiveKey reports whether key names a secret.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}
