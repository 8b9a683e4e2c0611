package ident

import (
	"math"
	"strconv"
	"strings"
)

// CatchmentPrefix parses the leading "<number>/" of a catchment address.
//
// The number follows loose numeric-literal rules: surrounding whitespace is
// ignored, an empty prefix reads as 0, and 0x/0o/0b integers and exponents are
// accepted. Infinite prefixes saturate.
func CatchmentPrefix(value string) (int, bool) {
	head, _, found := strings.Cut(value, "/")
	if !found {
		return 0, false
	}
	f, ok := parseNumber(head)
	if !ok {
		return 0, false
	}
	switch {
	case f >= math.MaxInt:
		return math.MaxInt, true
	case f <= math.MinInt:
		return math.MinInt, true
	}
	return int(f), true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if unsigned := strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-"); unsigned == "Infinity" && len(s)-len(unsigned) <= 1 {
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
