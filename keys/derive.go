package keys

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/base64"
	"strconv"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/sha3"

	"plotthread.org/client/model"
)

var (
	ErrInvalidPassphrase = model.NewError(model.KindCryptoPrecondition, "KEY-001", "passphrase must not be empty")
	ErrInvalidCount      = model.NewError(model.KindCryptoPrecondition, "KEY-002", "key count must be positive")
	ErrKeyIndex          = model.NewError(model.KindCryptoPrecondition, "KEY-003", "key index out of range")
	ErrNoKeys            = model.NewError(model.KindCryptoPrecondition, "KEY-005", "no public keys imported")
	ErrKeyMismatch       = model.NewError(model.KindCryptoPrecondition, "KEY-007", "passphrase does not match held key")
)

// KeyPair is one derived signing key.
//
// The private key is owned by the caller that derived it and must be released with
// Destroy as soon as signing is done.
type KeyPair struct {
	PublicKey  string
	PrivateKey ed25519.PrivateKey
	Index      int
}

// Destroy zeroes the private key.
func (k *KeyPair) Destroy() {
	clear(k.PrivateKey)
	k.PrivateKey = nil
}

// Derive returns the first count keypairs for passphrase. The result for a larger
// count always extends the result for a smaller one.
func Derive(passphrase string, count int) ([]KeyPair, error) {
	if passphrase == "" {
		return nil, ErrInvalidPassphrase
	}
	if count < 1 {
		return nil, ErrInvalidCount
	}

	seed, err := rootSeed(passphrase)
	if err != nil {
		return nil, err
	}
	defer clear(seed)

	out := make([]KeyPair, 0, count)
	buf := make([]byte, 0, len(seed)+20)
	for i := 0; i < count; i++ {
		buf = append(buf[:0], seed...)
		buf = strconv.AppendInt(buf, int64(i), 10)
		digest := sha512.Sum512(buf)
		priv := ed25519.NewKeyFromSeed(digest[:ed25519.SeedSize])
		clear(digest[:])
		pub := priv.Public().(ed25519.PublicKey)
		out = append(out, KeyPair{
			PublicKey:  base64.StdEncoding.EncodeToString(pub),
			PrivateKey: priv,
			Index:      i,
		})
	}
	clear(buf[:cap(buf)])
	return out, nil
}

// PublicKeys derives count keypairs and returns only their public keys.
func PublicKeys(passphrase string, count int) ([]string, error) {
	pairs, err := Derive(passphrase, count)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(pairs))
	for i := range pairs {
		out[i] = pairs[i].PublicKey
		pairs[i].Destroy()
	}
	return out, nil
}

// WithKey derives the keypair at index, hands it to fn and destroys every derived
// private key before returning, whatever fn does.
func WithKey(passphrase string, index int, fn func(KeyPair) error) error {
	if index < 0 {
		return ErrKeyIndex
	}
	pairs, err := Derive(passphrase, index+1)
	if err != nil {
		return err
	}
	defer func() {
		for i := range pairs {
			pairs[i].Destroy()
		}
	}()
	return fn(pairs[index])
}

func rootSeed(passphrase string) ([]byte, error) {
	entropy := sha3.Sum256([]byte(passphrase))
	defer clear(entropy[:])
	mnemonic, err := bip39.NewMnemonic(entropy[:])
	if err != nil {
		return nil, model.WrapError(model.KindCryptoPrecondition, "KEY-010", "mnemonic encoding failed", err)
	}
	return bip39.NewSeed(mnemonic, ""), nil
}
