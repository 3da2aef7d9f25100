package scope

import "strings"

// matchGlob checks if a pattern matches a value with simple glob support.
// Supports a bare '*' and a trailing '*' ("roles:*" matches "roles:read").
func matchGlob(pattern, value string) bool {
	if pattern == "*" || pattern == value {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(value, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// matchPermission checks if a held permission slug satisfies a required one.
// Held slugs may carry wildcards; required slugs are literal.
func matchPermission(held, required string) bool {
	if held == "" || required == "" {
		return false
	}
	return matchGlob(held, required)
}
