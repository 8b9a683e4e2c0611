// Package ident maps the many spellings users paste or scan for a public key onto
// the single fixed-length form used as a cache key and on the wire.
//
// A complete identifier is 43 base64 characters followed by '='. Partial input is
// filtered to the base64 alphabet and right-padded with '0'. Catchment-prefixed
// values ("<number>/...") and values containing "//" are display addresses; for
// those the zero padding is stripped instead of added.
//
// Nothing in this package returns an error: unrecoverable input degrades to the
// all-zero identifier.
package ident

import (
	"regexp"
	"strings"
)

// Length is the number of base64 characters before the trailing '='.
const Length = 43

var (
	completeRe = regexp.MustCompile(`^[A-Za-z0-9/+]{43}=$`)
	nonB64Re   = regexp.MustCompile(`[^A-Za-z0-9/+]`)
	paddingRe  = regexp.MustCompile(`0+=?$`)
)

// Zero is the degenerate identifier that unrecoverable input normalizes to.
var Zero = strings.Repeat("0", Length) + "="

// IsComplete reports whether value is already a fixed-length identifier.
func IsComplete(value string) bool {
	return completeRe.MatchString(value)
}

// Normalize returns the canonical spelling of raw. It is idempotent.
func Normalize(raw string) string {
	if IsComplete(raw) {
		return raw
	}
	if isAddress(raw) {
		return Trim(raw)
	}
	return pad(raw)
}

// Pad is Normalize without the address case: the result is always a complete
// identifier, so it is safe to use as a map key for any input.
func Pad(raw string) string {
	if IsComplete(raw) {
		return raw
	}
	return pad(raw)
}

func pad(raw string) string {
	if len(raw) < 3 {
		return Zero
	}
	s := nonB64Re.ReplaceAllString(raw, "")
	if s == "" {
		return Zero
	}
	if len(s) > Length {
		s = s[:Length]
	}
	return s + strings.Repeat("0", Length-len(s)) + "="
}

// Trim strips trailing zero padding and the '=' that follows it.
func Trim(value string) string {
	for {
		next := paddingRe.ReplaceAllString(value, "")
		if next == value {
			return value
		}
		value = next
	}
}

// IsKeyPair reports whether value looks like a real public key rather than a
// catchment address or a zero-padded fragment.
func IsKeyPair(value string) bool {
	_, ok := CatchmentPrefix(value)
	return !ok && !strings.HasSuffix(value, "0=")
}

func isAddress(value string) bool {
	_, ok := CatchmentPrefix(value)
	return ok || strings.Contains(value, "//")
}
