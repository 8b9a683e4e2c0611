package ident

import (
	"strings"
	"testing"
)

const fullKey = "Zm9vYmFyYmF6cXV4cXV1eGNvcmdlZ3JhdWx0Z2FycGw="

func TestNormalizeFiltersAndPads(t *testing.T) {
	got := Normalize("abc!@#")
	want := "abc" + strings.Repeat("0", 40) + "="
	if got != want {
		t.Fatalf("Normalize(abc!@#) = %q, want %q", got, want)
	}
	if len(got) != Length+1 {
		t.Fatalf("expected %d characters, got %d", Length+1, len(got))
	}
}

func TestNormalizeCases(t *testing.T) {
	long := strings.Repeat("A", 50)
	cases := []struct {
		name, in, want string
	}{
		{"complete passes through", fullKey, fullKey},
		{"catchment trims padding", "12/abc000=", "12/abc"},
		{"double slash trims padding", "ab//cd00", "ab//cd"},
		{"catchment without padding", "3/xyz", "3/xyz"},
		{"truncated beyond length", long, strings.Repeat("A", Length) + "="},
		{"short input", "ab", Zero},
		{"empty input", "", Zero},
		{"no base64 characters", "!!!???", Zero},
		{"partial key", "Zm9v", "Zm9v" + strings.Repeat("0", 39) + "="},
		{"wrong padding", fullKey[:43] + "==", fullKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", "a", "ab", "abc", "abc!@#", fullKey, fullKey + "x", "12/abc000=", "12/a0=0",
		"x//0", "1/", "0/0", "/abc00", "héllo wörld", strings.Repeat("+/", 30), "  7 /foo0",
		"0x1F/abc", "NaN/abc", "Infinity/00=", "000000000000000000000000000000000000000000=",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
		padded := Pad(in)
		if !IsComplete(padded) {
			t.Fatalf("Pad(%q) = %q is not complete", in, padded)
		}
		if Pad(padded) != padded {
			t.Fatalf("Pad not idempotent for %q", in)
		}
	}
}

func TestPadIgnoresAddressForm(t *testing.T) {
	if got, want := Pad("12/abc000="), "12/abc"+strings.Repeat("0", 37)+"="; got != want {
		t.Fatalf("Pad = %q, want %q", got, want)
	}
}

func TestTrim(t *testing.T) {
	cases := map[string]string{
		"abc000=": "abc",
		"abc=":    "abc=",
		"abc0":    "abc",
		"a0=0":    "a",
		"":        "",
		"000=":    "",
	}
	for in, want := range cases {
		if got := Trim(in); got != want {
			t.Fatalf("Trim(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCatchmentPrefix(t *testing.T) {
	cases := []struct {
		in    string
		index int
		ok    bool
	}{
		{"12/abc", 12, true},
		{" 7 /abc", 7, true},
		{"/abc", 0, true},
		{"0x10/abc", 16, true},
		{"1e2/abc", 100, true},
		{"abc/def", 0, false},
		{"NaN/def", 0, false},
		{"12abc", 0, false},
		{"1_0/x", 0, false},
	}
	for _, tc := range cases {
		idx, ok := CatchmentPrefix(tc.in)
		if ok != tc.ok || idx != tc.index {
			t.Fatalf("CatchmentPrefix(%q) = (%d, %v), want (%d, %v)", tc.in, idx, ok, tc.index, tc.ok)
		}
	}
}

func TestIsKeyPair(t *testing.T) {
	if !IsKeyPair(fullKey) {
		t.Fatalf("expected full key to be a key pair")
	}
	if IsKeyPair("12/abc") {
		t.Fatalf("catchment address is not a key pair")
	}
	if IsKeyPair(Normalize("abc")) {
		t.Fatalf("zero padded fragment is not a key pair")
	}
}

func TestShorten(t *testing.T) {
	if got, want := Shorten(fullKey), "Zm9vY...cGw="; got != want {
		t.Fatalf("Shorten = %q, want %q", got, want)
	}
	if got := Shorten("12/abc000="); got != "12/abc" {
		t.Fatalf("Shorten address = %q", got)
	}
	if got := Shorten("ab"); got != "ab..." {
		t.Fatalf("Shorten short = %q", got)
	}

	id := strings.Repeat("0123456789abcdef", 4)
	if got, want := ShortenHex(id), "01234...cdef"; got != want {
		t.Fatalf("ShortenHex = %q, want %q", got, want)
	}
}

func TestHexBase64Conversions(t *testing.T) {
	if got := HexToBase64("666f6f"); got != "Zm9v" {
		t.Fatalf("HexToBase64 = %q", got)
	}
	if got := Base64ToHex("Zm9v"); got != "666F6F" {
		t.Fatalf("Base64ToHex = %q", got)
	}
	if HexToBase64("zz") != "" || Base64ToHex("!!") != "" {
		t.Fatalf("expected empty result for invalid input")
	}

	id := strings.Repeat("ab", 32)
	b64 := HexToBase64(id)
	if got, want := ShortenPlotID(id), b64[:7]+"..."+b64[37:]; got != want {
		t.Fatalf("ShortenPlotID = %q, want %q", got, want)
	}
}
