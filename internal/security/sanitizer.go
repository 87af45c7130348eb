// Package security redacts credentials from text before it is logged
package security

import (
	"regexp"
	"sort"
	"strings"
)

// Common patterns for sensitive data
var (
	// Passwords in URLs
	urlPasswordPattern = regexp.MustCompile(`(?i)(https?|ftp)://[^:/\s]+:([^@\s]+)@`)

	// Bearer tokens
	bearerTokenPattern = regexp.MustCompile(`(?i)bearer[[:space:]]+([a-zA-Z0-9_\-\.]+)`)

	// password: x / password=x in config or query strings
	keyValuePattern = regexp.MustCompile(`(?i)\b(password|passwd|api[_-]?key)[[:space:]]*[:=][[:space:]]*['"]?([^'"\s&,}]+)['"]?`)

	// <member><name>password</name><value><string>x</string></value></member>
	xmlrpcPasswordPattern = regexp.MustCompile(`(?is)(<name>\s*(?:password|Bugzilla_password|Bugzilla_api_key)\s*</name>\s*<value>\s*(?:<string>)?)(.*?)((?:</string>)?\s*</value>)`)

	// Bugzilla session cookies
	cookiePattern = regexp.MustCompile(`(?i)(Bugzilla_login(?:cookie)?|Bugzilla_token)=([^;\s]+)`)
)

// LogSanitizer provides methods for sanitizing logs
type LogSanitizer struct {
	literals       []string
	customPatterns []*regexp.Regexp
}

// NewLogSanitizer creates a new log sanitizer
func NewLogSanitizer() *LogSanitizer {
	return &LogSanitizer{}
}

// AddLiteral registers a known secret (e.g. the configured password) that
// is replaced wherever it appears. Empty and very short values are ignored
// to avoid masking ordinary words.
func (ls *LogSanitizer) AddLiteral(secret string) {
	if len(secret) < 4 {
		return
	}
	ls.literals = append(ls.literals, secret)
	// Longest first so overlapping secrets are fully masked.
	sort.Slice(ls.literals, func(i, j int) bool {
		return len(ls.literals[i]) > len(ls.literals[j])
	})
}

// AddCustomPattern adds a custom pattern to sanitize
func (ls *LogSanitizer) AddCustomPattern(pattern *regexp.Regexp) {
	ls.customPatterns = append(ls.customPatterns, pattern)
}

// Sanitize removes or masks sensitive information from log messages
func (ls *LogSanitizer) Sanitize(message string) string {
	for _, lit := range ls.literals {
		message = strings.ReplaceAll(message, lit, "[REDACTED]")
	}

	message = xmlrpcPasswordPattern.ReplaceAllString(message, "${1}[REDACTED]${3}")
	message = urlPasswordPattern.ReplaceAllString(message, "${1}://[REDACTED]@")
	message = bearerTokenPattern.ReplaceAllString(message, "Bearer [REDACTED]")
	message = keyValuePattern.ReplaceAllString(message, "${1}=[REDACTED]")
	message = cookiePattern.ReplaceAllString(message, "${1}=[REDACTED]")

	for _, pattern := range ls.customPatterns {
		message = pattern.ReplaceAllString(message, "[REDACTED]")
	}

	return message
}

// SanitizeError sanitizes error messages that might contain sensitive info
func (ls *LogSanitizer) SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return ls.Sanitize(err.Error())
}

// SanitizeMap sanitizes all values in a map (useful for labels/metadata)
func (ls *LogSanitizer) SanitizeMap(m map[string]string) map[string]string {
	sanitized := make(map[string]string, len(m))
	for k, v := range m {
		if isSensitiveKey(k) {
			sanitized[k] = "[REDACTED]"
			continue
		}
		sanitized[k] = ls.Sanitize(v)
	}
	return sanitized
}

// isSensitiveKey checks if a key name suggests sensitive content
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, keyword := range []string{"password", "passwd", "secret", "token", "cookie", "api_key", "apikey", "credential"} {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
