package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DecimalPrecision is the number of fractional digits every Amount carries.
// All balances and transaction amounts use this single scale.
const DecimalPrecision = 4

// Scale is 10^DecimalPrecision.
const Scale int64 = 10_000

// Amount is a fixed-point decimal: the int64 mantissa of value * Scale.
// It is a pure value type; arithmetic that could overflow or is otherwise
// unrepresentable returns an error instead of wrapping silently.
type Amount int64

var (
	ErrOverflow   = errors.New("amount overflow")
	ErrNotDecimal = errors.New("not a decimal number")
)

// Zero is the zero amount.
const Zero Amount = 0

// FromUnits builds an Amount from a raw mantissa (value * 10^4).
func FromUnits(units int64) Amount {
	return Amount(units)
}

// Units returns the raw mantissa.
func (a Amount) Units() int64 {
	return int64(a)
}

// Add returns a + b, failing on int64 overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := int64(a) + int64(b)
	if (int64(b) > 0 && sum < int64(a)) || (int64(b) < 0 && sum > int64(a)) {
		return 0, fmt.Errorf("%d + %d: %w", int64(a), int64(b), ErrOverflow)
	}
	return Amount(sum), nil
}

// Sub returns a - b, failing on int64 overflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if int64(b) == math.MinInt64 {
		return 0, fmt.Errorf("%d - %d: %w", int64(a), int64(b), ErrOverflow)
	}
	return a.Add(Amount(-int64(b)))
}

// Cmp returns -1, 0 or +1 as a is less than, equal to, or greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool {
	return a < 0
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool {
	return a == 0
}

// Parse converts a decimal string into an Amount. Input beyond 4 fractional
// digits is truncated toward zero; this is the documented lossy edge of the
// format, not an error. Anything that is not a plain decimal number fails.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string: %w", ErrNotDecimal)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, fmt.Errorf("%q: %w", s, ErrNotDecimal)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return 0, fmt.Errorf("%q: %w", s, ErrNotDecimal)
		}
	}

	var units int64
	for i := 0; i < len(whole); i++ {
		d := whole[i]
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("%q: %w", s, ErrNotDecimal)
		}
		if units > (math.MaxInt64-int64(d-'0'))/10 {
			return 0, fmt.Errorf("%q: %w", s, ErrOverflow)
		}
		units = units*10 + int64(d-'0')
	}
	if units > math.MaxInt64/Scale {
		return 0, fmt.Errorf("%q: %w", s, ErrOverflow)
	}
	units *= Scale

	// Fractional part: take at most DecimalPrecision digits, drop the rest
	// (round toward zero). Remaining digits still have to be digits.
	mul := Scale / 10
	var fracUnits int64
	for i := 0; i < len(frac); i++ {
		d := frac[i]
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("%q: %w", s, ErrNotDecimal)
		}
		if i < DecimalPrecision {
			fracUnits += int64(d-'0') * mul
			mul /= 10
		}
	}
	// The whole part alone can sit exactly at MaxInt64/Scale, so the
	// fractional contribution needs its own overflow check.
	if units > math.MaxInt64-fracUnits {
		return 0, fmt.Errorf("%q: %w", s, ErrOverflow)
	}
	units += fracUnits

	if neg {
		units = -units
	}
	return Amount(units), nil
}

// MustParse is Parse for test fixtures and constants; it panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the amount with exactly DecimalPrecision fractional digits.
func (a Amount) String() string {
	units := int64(a)
	if units == math.MinInt64 {
		// -units would overflow.
		return "-922337203685477.5808"
	}
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%04d", sign, units/Scale, units%Scale)
}
