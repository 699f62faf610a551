// Package units converts between decimal amount strings and base-unit
// integers without float precision loss. Committed and encrypted amounts are
// always base-unit integers; decimal strings appear only at API boundaries.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SOLDecimals  = 9 // SOL has 9 decimals (lamports)
	USDCDecimals = 6 // USDC has 6 decimals (micro)
	ETHDecimals  = 18
)

// Format converts a base-unit integer to a decimal string by inserting the
// decimal point. Example: Format(24981836, 9) = "0.024981836"
func Format(value uint64, decimals int) string {
	s := fmt.Sprintf("%d", value)

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// Parse converts a decimal string to a base-unit integer by removing the
// decimal point. Example: Parse("0.024981836", 9) = 24981836
func Parse(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	parts := strings.Split(s, ".")

	var whole, frac string
	switch len(parts) {
	case 1:
		whole = parts[0]
	case 2:
		whole, frac = parts[0], parts[1]
	default:
		return 0, fmt.Errorf("invalid decimal format")
	}

	// Pad or truncate fractional part to exact decimals
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else if len(frac) > decimals {
		frac = frac[:decimals]
	}

	// ParseUint on the combined digits also rejects amounts past uint64
	// instead of silently wrapping.
	return strconv.ParseUint(whole+frac, 10, 64)
}

// Compare compares two decimal amount strings at the same precision.
// Returns -1 if a < b, 0 if a == b, 1 if a > b, and an error if parsing fails.
func Compare(a, b string, decimals int) (int, error) {
	aVal, err := Parse(a, decimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}

	bVal, err := Parse(b, decimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}

	if aVal < bVal {
		return -1, nil
	}
	if aVal > bVal {
		return 1, nil
	}
	return 0, nil
}
