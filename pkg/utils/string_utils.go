package utils

import "strings"

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeIP maps loopback and IPv4-mapped IPv6 addresses to plain IPv4 so
// they compare equal to whitelist entries.
func NormalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "::1" {
		return "127.0.0.1"
	}
	return strings.TrimPrefix(ip, "::ffff:")
}
