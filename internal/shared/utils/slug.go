package utils

import (
	"regexp"
	"strings"
)

// slugPattern: lowercase alphanumeric + hyphens, 2-50 chars.
// Publication slugs are part of public URLs and must stay stable.
var slugPattern = regexp.MustCompile(`^[a-z0-9-]{2,50}$`)

// IsValidSlug reports whether s is an acceptable publication slug
func IsValidSlug(s string) bool {
	if !slugPattern.MatchString(s) {
		return false
	}
	// No leading/trailing or doubled hyphens
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		return false
	}
	return !strings.Contains(s, "--")
}

// GenerateSlug derives a URL-safe slug from a free-form name
func GenerateSlug(input string) string {
	// Lowercase first
	lower := strings.ToLower(input)

	// Replace spaces with hyphens
	hyphenated := strings.ReplaceAll(lower, " ", "-")

	// Keep only: a-z, 0-9, hyphens
	reg := regexp.MustCompile(`[^a-z0-9-]+`)
	cleaned := reg.ReplaceAllString(hyphenated, "")

	// Collapse consecutive hyphens
	reg = regexp.MustCompile(`-+`)
	normalized := reg.ReplaceAllString(cleaned, "-")

	// Trim leading/trailing hyphens
	trimmed := strings.Trim(normalized, "-")

	// Clamp to the column limit
	if len(trimmed) > 50 {
		trimmed = strings.Trim(trimmed[:50], "-")
	}

	return trimmed
}
