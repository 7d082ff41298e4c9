package logging

import "regexp"

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Session tokens must never reach the log file; every header or URL
// that might carry one goes through Redact before logging.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{16,}`),
	regexp.MustCompile(`(?i)(authorization|token|x-api-key)[=:]\s*\S+`),
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), // JWT
}

// Redact replaces token-like material in a string.
func Redact(s string) string {
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllString(s, RedactedValue)
	}
	return s
}
