package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseError describes a rejected amount string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse amount %q: %s", e.Input, e.Reason)
}

func parseErr(input, reason string) error {
	return &ParseError{Input: input, Reason: reason}
}

// Parse converts a user-entered amount string to Money, detecting whether
// the string uses Spanish (comma decimal, dot grouping) or English (dot
// decimal, comma grouping) notation.
//
// Detection rules, applied after stripping currency markers and spaces:
//
//   - Both separator characters present: the rightmost one is the decimal
//     separator, the other must form valid thousands groups.
//   - A single comma followed by 1 or 2 digits is a decimal separator
//     ("12,5" = 12,50). A single comma followed by exactly 3 digits is an
//     English thousands separator ("1,234" = 1234), since Spanish decimals
//     never have three digits.
//   - A single dot followed by 1 or 2 digits is a decimal separator
//     ("0.5" = 0,50). A single dot followed by exactly 3 digits is a
//     Spanish thousands separator ("1.234" = 1234).
//   - Repeated occurrences of the same separator are thousands grouping
//     and every group after the first must have exactly 3 digits.
//   - A grouped integer never starts with 0, so "0.234" and "0,234" are
//     rejected rather than read as 234.
//
// More than 2 decimal digits, malformed groups, or anything that is not a
// digit, sign, separator or currency marker is an error.
func Parse(s string) (Money, error) {
	orig := s
	s = stripCurrency(s)
	if s == "" {
		return 0, parseErr(orig, "empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, parseErr(orig, "sign without digits")
	}

	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return 0, parseErr(orig, fmt.Sprintf("unexpected character %q", r))
		}
	}

	intPart, decPart, err := splitParts(orig, s)
	if err != nil {
		return 0, err
	}

	euros, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, parseErr(orig, "integer part out of range")
	}

	cents := int64(0)
	switch len(decPart) {
	case 0:
	case 1:
		cents = int64(decPart[0]-'0') * 10
	case 2:
		cents = int64(decPart[0]-'0')*10 + int64(decPart[1]-'0')
	default:
		return 0, parseErr(orig, "more than 2 decimal digits")
	}

	if euros > math.MaxInt64/100 || (euros == math.MaxInt64/100 && cents > math.MaxInt64%100) {
		return 0, parseErr(orig, "amount out of range")
	}
	total := euros*100 + cents
	if neg {
		total = -total
	}
	return Money(total), nil
}

// MustParse is like Parse but panics on error. Test fixtures only.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func stripCurrency(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, " ", "")
	upper := strings.ToUpper(s)
	if i := strings.Index(upper, "EUR"); i >= 0 {
		s = s[:i] + s[i+3:]
	}
	return strings.ReplaceAll(s, " ", "")
}

// splitParts separates s into integer digits and decimal digits,
// validating thousands grouping along the way.
func splitParts(orig, s string) (intPart, decPart string, err error) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots == 0 && commas == 0:
		if s == "" {
			return "", "", parseErr(orig, "no digits")
		}
		return s, "", nil

	case dots > 0 && commas > 0:
		// Rightmost separator kind is the decimal one.
		lastDot := strings.LastIndex(s, ".")
		lastComma := strings.LastIndex(s, ",")
		if lastDot > lastComma {
			// English: commas group, final dot is decimal.
			if dots > 1 {
				return "", "", parseErr(orig, "multiple decimal separators")
			}
			return splitGrouped(orig, s, ',', '.')
		}
		if commas > 1 {
			return "", "", parseErr(orig, "multiple decimal separators")
		}
		// Spanish: dots group, final comma is decimal.
		return splitGrouped(orig, s, '.', ',')

	case commas > 0:
		if commas == 1 {
			i := strings.Index(s, ",")
			frac := s[i+1:]
			if len(frac) == 3 {
				// English thousands: "1,234".
				return joinGroups(orig, s, ',')
			}
			return validateDecimal(orig, s[:i], frac)
		}
		// "1,234,567" - English grouping, no decimals.
		return joinGroups(orig, s, ',')

	default: // dots > 0
		if dots == 1 {
			i := strings.Index(s, ".")
			frac := s[i+1:]
			if len(frac) == 3 {
				// Spanish thousands: "1.234".
				return joinGroups(orig, s, '.')
			}
			return validateDecimal(orig, s[:i], frac)
		}
		// "12.345.678" - Spanish grouping, no decimals.
		return joinGroups(orig, s, '.')
	}
}

// splitGrouped handles strings with both a grouping and a decimal
// separator, e.g. "1.234,56" (group='.', dec=',').
func splitGrouped(orig, s string, group, dec byte) (string, string, error) {
	i := strings.IndexByte(s, dec)
	intRaw, frac := s[:i], s[i+1:]
	if strings.IndexByte(frac, group) >= 0 {
		return "", "", parseErr(orig, "grouping separator after decimal separator")
	}
	intPart, _, err := joinGroups(orig, intRaw, group)
	if err != nil {
		return "", "", err
	}
	return validateDecimal(orig, intPart, frac)
}

// joinGroups validates thousands grouping (first group 1-3 digits, every
// later group exactly 3) and returns the concatenated digits.
func joinGroups(orig, s string, group byte) (string, string, error) {
	parts := strings.Split(s, string(group))
	for i, p := range parts {
		if i == 0 {
			if len(p) == 0 || len(p) > 3 {
				return "", "", parseErr(orig, "malformed thousands grouping")
			}
			// "0.234" is not a grouped integer; the separator must be
			// a misplaced decimal one.
			if len(parts) > 1 && p[0] == '0' {
				return "", "", parseErr(orig, "malformed thousands grouping")
			}
			continue
		}
		if len(p) != 3 {
			return "", "", parseErr(orig, "malformed thousands grouping")
		}
	}
	return strings.Join(parts, ""), "", nil
}

func validateDecimal(orig, intPart, frac string) (string, string, error) {
	if intPart == "" {
		return "", "", parseErr(orig, "missing integer part")
	}
	if frac == "" {
		return "", "", parseErr(orig, "decimal separator without digits")
	}
	if len(frac) > 2 {
		return "", "", parseErr(orig, "more than 2 decimal digits")
	}
	return intPart, frac, nil
}
