package log

import (
	"strings"
)

// SanitizeField checks if the key contains sensitive keywords and sanitizes the value.
// Exchange API keys, secrets and signing material must never appear in full in logs.
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	lowerKey := strings.ToLower(key)

	sensitiveKeywords := []string{
		"password", "passwd", "pwd",
		"api_key", "apikey", "api-key",
		"token", "access_token",
		"secret", "auth", "authorization",
		"credential", "private_key", "privatekey",
		"signature", "passphrase",
	}

	isSensitive := false
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			isSensitive = true
			break
		}
	}

	// Special handling for email
	if strings.Contains(lowerKey, "email") || strings.Contains(lowerKey, "mail") {
		return sanitizeEmail(value)
	}

	if isSensitive {
		return sanitizeToken(value)
	}

	return value
}

// sanitizeToken masks secret values showing only first 4 and last 4 characters
func sanitizeToken(value string) string {
	if len(value) <= 8 {
		// For short strings, mask everything except first and last char
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}

	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// sanitizeEmail masks email showing first 3 characters + @domain
func sanitizeEmail(value string) string {
	parts := strings.Split(value, "@")
	if len(parts) != 2 {
		return strings.Repeat("*", len(value))
	}

	localPart := parts[0]
	domain := parts[1]

	if len(localPart) <= 3 {
		if len(localPart) == 0 {
			return "@" + domain
		}
		return string(localPart[0]) + strings.Repeat("*", len(localPart)-1) + "@" + domain
	}

	return localPart[:3] + "***@" + domain
}
