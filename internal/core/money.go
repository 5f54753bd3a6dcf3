// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and dollar representations.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	cents, err := parseUnsignedCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseSignedDecimal parses a balance-like amount that may carry a sign and
// may be zero. Commas are thousands separators ("13,553", "$13,553.00") when
// the string has a dollar sign or a dot, or when every group after the first
// has three digits. A lone comma followed by one or two digits is a decimal
// comma ("12,5"). Anything else is ErrInvalidAmount.
func ParseSignedDecimal(s string) (Money, error) {
	s = strings.TrimSpace(s)
	dollar := strings.HasPrefix(s, "$")
	s = strings.TrimPrefix(s, "$")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "+"):
		s = strings.TrimSpace(s[1:])
	}
	if strings.HasPrefix(s, "$") {
		dollar = true
		s = s[1:]
	}
	if strings.Contains(s, ",") {
		var err error
		if s, err = normalizeCommas(s, dollar); err != nil {
			return Money{}, err
		}
	}
	cents, err := parseUnsignedCents(s)
	if err != nil {
		return Money{}, err
	}
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

// normalizeCommas strips thousands separators or turns a decimal comma into
// a dot.
func normalizeCommas(s string, dollar bool) (string, error) {
	intPart, frac, hasDot := strings.Cut(s, ".")
	groups := strings.Split(intPart, ",")
	if validGrouping(groups) {
		if hasDot {
			return strings.Join(groups, "") + "." + frac, nil
		}
		return strings.Join(groups, ""), nil
	}
	if hasDot || dollar || len(groups) != 2 {
		return "", ErrInvalidAmount
	}
	if n := len(groups[1]); n < 1 || n > 2 {
		return "", ErrInvalidAmount
	}
	return groups[0] + "." + groups[1], nil
}

func validGrouping(groups []string) bool {
	if n := len(groups[0]); n < 1 || n > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func parseUnsignedCents(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Dollars returns the value as a float64 for display and charting.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

// Max returns the larger of the two amounts.
func (m Money) Max(o Money) Money {
	if o.Cents > m.Cents {
		return o
	}
	return m
}

// FromDollars converts whole dollars to Money.
func FromDollars(d int64) Money {
	return Money{Cents: d * 100}
}
