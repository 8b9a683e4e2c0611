// Package keys derives signing keys from a passphrase and signs representations.
//
// Derivation (stable, SemVer-protected):
//
//	entropy  = sha3-256(passphrase)
//	mnemonic = BIP-39 English mnemonic of entropy (internal only, never returned)
//	seed     = BIP-39 seed of mnemonic, empty mnemonic passphrase
//	key[i]   = ed25519 from sha512(seed || decimal(i))[:32]
//
// Passphrases and private keys are never persisted or logged. Private key material
// lives only inside a Sign or WithKey call and is zeroed before it returns.
// The Holder persists public keys only.
package keys
