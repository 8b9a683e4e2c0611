// Package storage defines the key/value contract the client persists its state through.
//
// The client never persists passphrases or private keys; everything written through
// a KV is public ledger state (cached profiles, graphs, representations, plots) or
// public keys.
package storage

import "context"

// KV is a minimal bucketed key/value store.
//
// Contract:
// - Get MUST return ErrNotFound when the key is absent.
// - Put MUST replace any previous value for the key (last write wins).
// - Delete of an absent key is not an error.
// - Keys MUST return the bucket's keys sorted ascending; an unknown bucket yields no keys.
// - Values returned by Get MUST NOT alias memory the caller could mutate.
type KV interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	Delete(ctx context.Context, bucket, key string) error
	Keys(ctx context.Context, bucket string) ([]string, error)
	Close() error
}
