package cliutil

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[redacted]"

var (
	secretKeyPattern  = regexp.MustCompile(`(?i)\b(` + strings.Join(secretKeys(), "|") + `)\b(\s*[:=]\s*)(["']?)([^"'\s]+)(["']?)`)
	secretFlagPattern = regexp.MustCompile(`(?i)(--?(?:` + strings.Join(secretFlags(), "|") + `))([= ])(["']?)([^"'\s]+)(["']?)`)
)

func secretKeys() []string {
	keys := []string{
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"AWS_SESSION_TOKEN",
		"AZURE_CLIENT_SECRET",
		"GCP_SERVICE_ACCOUNT_KEY",
		"DATABASE_PASSWORD",
		"DB_PASSWORD",
		"POSTGRES_PASSWORD",
		"REDIS_PASSWORD",
		"GITHUB_TOKEN",
		"API_KEY",
		"ACCESS_TOKEN",
		"REFRESH_TOKEN",
		"CLIENT_SECRET",
	}
	escaped := make([]string, len(keys))
	for i, key := range keys {
		escaped[i] = regexp.QuoteMeta(key)
	}
	return escaped
}

func secretFlags() []string {
	flags := []string{
		"password",
		"passwd",
		"token",
		"api-key",
		"secret",
		"connection-token",
	}
	escaped := make([]string, len(flags))
	for i, flag := range flags {
		escaped[i] = regexp.QuoteMeta(flag)
	}
	return escaped
}

// RedactSecrets masks known secret key assignments and secret-bearing
// command-line flags in the supplied command line, replacing their values
// with a generic [redacted] marker.
func RedactSecrets(command string) string {
	if command == "" {
		return command
	}
	redacted := secretKeyPattern.ReplaceAllString(command, "$1$2$3"+redactedPlaceholder+"$5")
	return secretFlagPattern.ReplaceAllString(redacted, "$1$2$3"+redactedPlaceholder+"$5")
}
