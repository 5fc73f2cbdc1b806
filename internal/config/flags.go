package config

import (
	"os"
	"strings"
)

// EnvBool reads a boolean switch. "1", "true", "yes" and "y" enable it, case-insensitively;
// anything else, including unset, disables it.
func EnvBool(key string) bool {
	return ParseBool(os.Getenv(key))
}

// ParseBool applies the EnvBool rules to a raw value.
func ParseBool(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
