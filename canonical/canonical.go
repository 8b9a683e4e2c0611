// Package canonical is the single canonicalization choke point for representations.
//
// The canonical encoding is the compact JSON object
//
//	{"time":T,"nonce":N,"by":"B","for":"F","memo":"M","series":S}
//
// with the keys in exactly that order, absent optional fields encoded as null and
// strings escaped the way ECMAScript JSON.stringify escapes them. The representation
// identifier is the lowercase hex sha3-256 of those bytes.
//
// All hashing, signing, verification and deduplication MUST pass through Encode;
// an encoder that differs by a single byte produces unverifiable signatures.
package canonical

import (
	"encoding/hex"
	"strconv"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"

	"plotthread.org/client/model"
)

// MaxMemoLength is the maximum memo length in characters.
const MaxMemoLength = 200

// Encode returns the canonical bytes of r. Signature is never part of the encoding.
func Encode(r model.Representation) []byte {
	b := make([]byte, 0, 128+len(r.Memo))
	b = append(b, `{"time":`...)
	b = strconv.AppendUint(b, r.Time, 10)
	b = append(b, `,"nonce":`...)
	if r.Nonce != nil {
		b = strconv.AppendUint(b, uint64(*r.Nonce), 10)
	} else {
		b = append(b, "null"...)
	}
	b = append(b, `,"by":`...)
	if r.By != nil {
		b = appendString(b, *r.By)
	} else {
		b = append(b, "null"...)
	}
	b = append(b, `,"for":`...)
	b = appendString(b, r.For)
	b = append(b, `,"memo":`...)
	b = appendString(b, r.Memo)
	b = append(b, `,"series":`...)
	if r.Series != nil {
		b = strconv.AppendUint(b, *r.Series, 10)
	} else {
		b = append(b, "null"...)
	}
	return append(b, '}')
}

// IdentifierOf returns the representation identifier of r.
func IdentifierOf(r model.Representation) string {
	sum := sha3.Sum256(Encode(r))
	return hex.EncodeToString(sum[:])
}

// IDBytes decodes a hex representation identifier into the 32 bytes that are signed.
func IDBytes(id string) ([]byte, error) {
	b, err := hex.DecodeString(id)
	if err != nil {
		return nil, model.WrapError(model.KindValidation, "REP-002", "invalid representation identifier", err)
	}
	if len(b) != sha3.New256().Size() {
		return nil, model.NewError(model.KindValidation, "REP-003", "invalid representation identifier length")
	}
	return b, nil
}

// ValidateMemo reports whether memo fits the ledger's memo limit.
func ValidateMemo(memo string) error {
	if utf8.RuneCountInString(memo) > MaxMemoLength {
		return model.NewError(model.KindValidation, "REP-001", "memo exceeds 200 characters")
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// appendString appends s as a JSON string literal using JSON.stringify escaping:
// no HTML escaping, no escaping of U+2028/U+2029, invalid UTF-8 replaced by U+FFFD.
func appendString(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				b = append(b, '\\', '"')
			case '\\':
				b = append(b, '\\', '\\')
			case '\b':
				b = append(b, '\\', 'b')
			case '\f':
				b = append(b, '\\', 'f')
			case '\n':
				b = append(b, '\\', 'n')
			case '\r':
				b = append(b, '\\', 'r')
			case '\t':
				b = append(b, '\\', 't')
			default:
				if c < 0x20 {
					b = append(b, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
				} else {
					b = append(b, c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b = utf8.AppendRune(b, utf8.RuneError)
		} else {
			b = append(b, s[i:i+size]...)
		}
		i += size
	}
	return append(b, '"')
}
