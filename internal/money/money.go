// Package money provides integer-cent monetary amounts and a
// locale-detecting parser for user-entered currency strings.
//
// Amounts are always euro cents stored as int64. Floats are never used to
// represent money; they appear only transiently when formatting.
//
// The parser accepts both Spanish-style ("1.234,56") and English-style
// ("1,234.56") notation and detects which one is in use from the
// separators themselves (see Parse).
package money

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
)

// Money is a monetary amount in euro cents.
type Money int64

// FromCents wraps a raw cent count.
func FromCents(cents int64) Money { return Money(cents) }

// FromEuros builds an amount from whole euros and cents.
// The cents part carries the sign of the euros part.
func FromEuros(euros, cents int64) Money {
	if euros < 0 {
		return Money(euros*100 - cents)
	}
	return Money(euros*100 + cents)
}

// Cents returns the raw cent count.
func (m Money) Cents() int64 { return int64(m) }

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Neg() Money        { return -m }

// MulInt scales the amount by an integer factor (e.g. number of payments).
func (m Money) MulInt(n int64) Money { return Money(int64(m) * n) }

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsNegative() bool { return m < 0 }

// split returns absolute euros and cents plus the sign prefix.
func (m Money) split() (euros, cents int64, sign string) {
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return v / 100, v % 100, sign
}

// Format renders the amount using the separator conventions of tag:
// language.Spanish yields "1.234,56" and language.English "1,234.56".
// Thousands are always grouped, unlike CLDR Spanish which starts
// grouping at five digits; bank statements group from four.
func (m Money) Format(tag language.Tag) string {
	euros, cents, sign := m.split()
	groupSep, decSep := ".", ","
	if base, _ := tag.Base(); base.String() == "en" {
		groupSep, decSep = ",", "."
	}
	grouped := group(strconv.FormatInt(euros, 10), groupSep)
	return fmt.Sprintf("%s%s%s%02d", sign, grouped, decSep, cents)
}

// group inserts sep every three digits from the right.
func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var out []byte
	lead := len(digits) % 3
	if lead > 0 {
		out = append(out, digits[:lead]...)
	}
	for i := lead; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, sep...)
		}
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}

// String renders the amount in Spanish notation with a euro sign,
// matching how the rest of the application displays money.
func (m Money) String() string {
	return m.Format(language.Spanish) + " €"
}
