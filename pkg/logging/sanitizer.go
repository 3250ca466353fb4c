package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Pattern to match JWT bearer tokens (three base64url segments)
	jwtPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// Pattern to match potential API keys
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Pattern to match embedded credentials (user:pass@host format)
	credsPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// SanitizeURL removes embedded credentials and API keys from a URL before
// logging it.
func SanitizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	sanitized := credsPattern.ReplaceAllString(rawURL, "://"+RedactedText+"@"+RedactedText)
	return apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

// SanitizeError scrubs bearer tokens and API keys from error messages.
// Gateway errors may echo request headers or URLs, so run every remote error
// through this before logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := jwtPattern.ReplaceAllString(err.Error(), "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return credsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}
