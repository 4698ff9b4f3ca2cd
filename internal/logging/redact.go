package logging

import (
	"net/url"
	"sort"
	"strings"
)

// IsSensitiveField returns true when a key likely holds a secret.
func IsSensitiveField(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")

	switch {
	case normalized == "authorization":
		return true
	case strings.Contains(normalized, "password"):
		return true
	case strings.Contains(normalized, "token"):
		return true
	case strings.Contains(normalized, "secret"):
		return true
	case strings.Contains(normalized, "cookie"):
		return true
	default:
		return false
	}
}

// FormatForm renders form values in stable key order with secrets redacted.
func FormatForm(values url.Values) string {
	if len(values) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.Join(values[k], ",")
		if IsSensitiveField(k) {
			v = "[REDACTED]"
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
