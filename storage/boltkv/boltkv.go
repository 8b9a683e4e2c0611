package boltkv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"plotthread.org/client/storage"
)

// KV is a storage.KV backed by a single bbolt file. Each KV bucket maps to a
// bolt bucket of the same name.
type KV struct {
	db *bolt.DB
}

var _ storage.KV = (*KV)(nil)

// Open opens (creating if needed) the bolt database at path.
func Open(path string) (*KV, error) {
	if path == "" {
		return nil, errors.New("boltkv: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &KV{db: db}, nil
}

func (k *KV) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := storage.CheckName(bucket, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := k.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return storage.ErrNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return storage.ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte{}, v...)
		return nil
	})
	return out, mapErr(err)
}

func (k *KV) Put(ctx context.Context, bucket, key string, value []byte) error {
	if err := storage.CheckName(bucket, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapErr(k.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	}))
}

func (k *KV) Delete(ctx context.Context, bucket, key string) error {
	if err := storage.CheckName(bucket, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapErr(k.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	}))
}

func (k *KV) Keys(ctx context.Context, bucket string) ([]string, error) {
	if bucket == "" {
		return nil, storage.ErrInvalidBucket
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := []string{}
	err := k.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		// bolt iterates in byte order, which is the sort order the contract requires.
		return b.ForEach(func(key, _ []byte) error {
			keys = append(keys, string(key))
			return nil
		})
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return keys, nil
}

func (k *KV) Close() error {
	if k == nil || k.db == nil {
		return nil
	}
	return k.db.Close()
}

func mapErr(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return storage.ErrClosed
	}
	return err
}
