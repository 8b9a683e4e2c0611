package canonical

import (
	"crypto/ed25519"
	"encoding/base64"
	"regexp"
	"strings"

	"plotthread.org/client/model"
)

// Verify checks the signature of a signed representation against its By key over
// the raw bytes of its identifier.
func Verify(r model.Representation) error {
	if r.By == nil {
		return model.NewError(model.KindCrypto, "SIG-101", "missing by")
	}
	if r.Signature == nil {
		return model.NewError(model.KindCrypto, "SIG-102", "missing signature")
	}
	pub, err := decodeBase64(*r.By)
	if err != nil {
		return model.WrapError(model.KindCrypto, "SIG-111", "invalid by base64", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return model.NewError(model.KindCrypto, "SIG-112", "invalid ed25519 public key length")
	}
	sig, err := decodeBase64(*r.Signature)
	if err != nil {
		return model.WrapError(model.KindCrypto, "SIG-121", "invalid signature base64", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return model.NewError(model.KindCrypto, "SIG-122", "invalid ed25519 signature length")
	}
	msg, err := IDBytes(IdentifierOf(r))
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
		return model.NewError(model.KindCrypto, "SIG-401", "signature invalid")
	}
	return nil
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

var refPattern = regexp.MustCompile(`ref\(([a-fA-F0-9]+)\)`)

// Reference returns the representation identifier referenced by the first
// ref(<hex>) token in memo, or "" when the memo has none. The hex is returned
// lower-cased, whatever case the memo used, so it can be used directly as a
// cache key; the memo is not modified.
func Reference(memo string) string {
	m := refPattern.FindStringSubmatch(memo)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}
