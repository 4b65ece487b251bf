package utils

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// StrToIntDefault parses s, returning fallback when it is empty, invalid or below 1.
func StrToIntDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

var nonAmountChars = regexp.MustCompile(`[^0-9.\-]`)

// ParseAmount reads a money value from loosely formatted text such as
// "PHP 1,250.50". Everything except digits, the dot and the minus sign is dropped.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := nonAmountChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no numeric value in %q", s)
	}
	return decimal.NewFromString(cleaned)
}
