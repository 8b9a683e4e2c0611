package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
)

func TestDerivePrefixStable(t *testing.T) {
	three, err := Derive("correct horse", 3)
	if err != nil {
		t.Fatalf("Derive(3): %v", err)
	}
	five, err := Derive("correct horse", 5)
	if err != nil {
		t.Fatalf("Derive(5): %v", err)
	}
	if len(three) != 3 || len(five) != 5 {
		t.Fatalf("unexpected lengths %d, %d", len(three), len(five))
	}
	for i := range three {
		if three[i].PublicKey != five[i].PublicKey {
			t.Fatalf("public key %d differs: %q vs %q", i, three[i].PublicKey, five[i].PublicKey)
		}
		if string(three[i].PrivateKey) != string(five[i].PrivateKey) {
			t.Fatalf("private key %d differs", i)
		}
		if three[i].Index != i {
			t.Fatalf("index = %d, want %d", three[i].Index, i)
		}
	}
}

func TestDeriveDeterministicAndDistinct(t *testing.T) {
	a, err := PublicKeys("correct horse", 4)
	if err != nil {
		t.Fatalf("PublicKeys: %v", err)
	}
	b, err := PublicKeys("correct horse", 4)
	if err != nil {
		t.Fatalf("PublicKeys: %v", err)
	}
	other, err := PublicKeys("battery staple", 4)
	if err != nil {
		t.Fatalf("PublicKeys: %v", err)
	}

	seen := map[string]bool{}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected deterministic derivation at %d", i)
		}
		if a[i] == other[i] {
			t.Fatalf("expected different passphrases to derive different keys at %d", i)
		}
		if seen[a[i]] {
			t.Fatalf("duplicate key at %d", i)
		}
		seen[a[i]] = true

		raw, err := base64.StdEncoding.DecodeString(a[i])
		if err != nil {
			t.Fatalf("expected valid base64: %v", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			t.Fatalf("expected %d pubkey bytes, got %d", ed25519.PublicKeySize, len(raw))
		}
		if len(a[i]) != 44 {
			t.Fatalf("expected 44 character key, got %d", len(a[i]))
		}
	}
}

func TestDerivePublicMatchesPrivate(t *testing.T) {
	pairs, err := Derive("correct horse", 2)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	for _, kp := range pairs {
		pub := kp.PrivateKey.Public().(ed25519.PublicKey)
		if got := base64.StdEncoding.EncodeToString(pub); got != kp.PublicKey {
			t.Fatalf("public key mismatch: %q vs %q", got, kp.PublicKey)
		}
	}
}

func TestDeriveRejectsBadInput(t *testing.T) {
	if _, err := Derive("", 1); !errors.Is(err, ErrInvalidPassphrase) {
		t.Fatalf("expected ErrInvalidPassphrase, got %v", err)
	}
	if _, err := Derive("x", 0); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
	if err := WithKey("x", -1, func(KeyPair) error { return nil }); !errors.Is(err, ErrKeyIndex) {
		t.Fatalf("expected ErrKeyIndex, got %v", err)
	}
}

func TestWithKeyDestroysPrivateKey(t *testing.T) {
	want, err := PublicKeys("correct horse", 3)
	if err != nil {
		t.Fatalf("PublicKeys: %v", err)
	}

	var held ed25519.PrivateKey
	err = WithKey("correct horse", 2, func(kp KeyPair) error {
		if kp.PublicKey != want[2] {
			t.Fatalf("WithKey handed key %q, want %q", kp.PublicKey, want[2])
		}
		held = kp.PrivateKey
		return nil
	})
	if err != nil {
		t.Fatalf("WithKey: %v", err)
	}
	for _, b := range held {
		if b != 0 {
			t.Fatalf("expected private key bytes to be zeroed after WithKey")
		}
	}

	sentinel := errors.New("boom")
	if err := WithKey("correct horse", 0, func(KeyPair) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}
}

func TestKeyPairDestroy(t *testing.T) {
	pairs, err := Derive("correct horse", 1)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	kp := pairs[0]
	backing := kp.PrivateKey
	kp.Destroy()
	if kp.PrivateKey != nil {
		t.Fatalf("expected PrivateKey to be nil after Destroy")
	}
	for _, b := range backing {
		if b != 0 {
			t.Fatalf("expected zeroed backing array")
		}
	}
}

// Public keys the reference wallet (js-sha3 + bip39 + tweetnacl) derives for
// "correct horse".
func TestDeriveKnownAnswer(t *testing.T) {
	want := []string{
		"kAlAffNeTSfhooM0641keP9tI7GoGATYQpCtYmuZ7ew=",
		"BxlVtQhjHVYGsA9bYomX35SMgwSVLc77G4qJpbRR0dI=",
	}
	got, err := PublicKeys("correct horse", 2)
	if err != nil {
		t.Fatalf("PublicKeys: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key %d = %s want %s", i, got[i], want[i])
		}
	}

	seed, err := rootSeed("correct horse")
	if err != nil {
		t.Fatalf("rootSeed: %v", err)
	}
	const wantSeed = "cae375663d6a5feeea3ffe6377e781c3fb5ee7b9a11f9da8c3ab718db7f24937b4c4c8de35eab40cdfe70567c8e777fd957504fcd7f5dfed9162b4990db66fd0"
	if hex.EncodeToString(seed) != wantSeed {
		t.Fatalf("seed = %x", seed)
	}

	id, _ := hex.DecodeString("4dbfb5c10894086485617f31ce967fc9163bd0e6e6864dddc073e02a3d311144")
	const wantSig = "BD2SNufiAJGzMggBqFvCmzvQapFXGE/LzM8qN7zC3pPMJOK0hZDH/eTJPR1jYCCdxGzfMq3F6qGQ/PECQ+KCAg=="
	err = WithKey("correct horse", 0, func(kp KeyPair) error {
		if sig := base64.StdEncoding.EncodeToString(ed25519.Sign(kp.PrivateKey, id)); sig != wantSig {
			t.Fatalf("signature = %s", sig)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithKey: %v", err)
	}
}
