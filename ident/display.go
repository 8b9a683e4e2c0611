package ident

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Shorten renders a public key for display: addresses lose their padding, keys
// become "first5...tail".
func Shorten(value string) string {
	if isAddress(value) {
		return Trim(value)
	}
	return head(value, 5) + "..." + tail(value, 40)
}

// ShortenHex renders a representation id as "first5...tail".
func ShortenHex(value string) string {
	return head(value, 5) + "..." + tail(value, 60)
}

// ShortenPlotID renders a hex plot id in its base64 form as "first7...tail".
func ShortenPlotID(value string) string {
	b64 := HexToBase64(value)
	return head(b64, 7) + "..." + tail(b64, 37)
}

// HexToBase64 converts hex to standard base64. Invalid hex yields "".
func HexToBase64(value string) string {
	b, err := hex.DecodeString(value)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToHex converts standard base64 to upper-case hex. Invalid base64 yields "".
func Base64ToHex(value string) string {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return ""
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, from int) string {
	if len(s) <= from {
		return ""
	}
	return s[from:]
}
