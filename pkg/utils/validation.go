package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// IsEmpty reports whether s holds only whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsValidEmail matches member emails case-insensitively.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.ToLower(email))
}
