package rediskv

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"plotthread.org/client/storage"
)

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0").
	URL string

	// Prefix namespaces every hash this store writes. Default: "plotthread".
	Prefix string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration
}

// KV is a storage.KV backed by Redis. Each bucket is one hash named
// "<prefix>:<bucket>".
type KV struct {
	client *redis.Client
	prefix string
}

var _ storage.KV = (*KV)(nil)

// New connects to Redis and verifies the connection with PING.
func New(opts Options) (*KV, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Prefix == "" {
		opts.Prefix = "plotthread"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &KV{client: client, prefix: opts.Prefix}, nil
}

func (k *KV) hash(bucket string) string { return k.prefix + ":" + bucket }

func (k *KV) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := storage.CheckName(bucket, key); err != nil {
		return nil, err
	}
	b, err := k.client.HGet(ctx, k.hash(bucket), key).Bytes()
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (k *KV) Put(ctx context.Context, bucket, key string, value []byte) error {
	if err := storage.CheckName(bucket, key); err != nil {
		return err
	}
	return mapErr(k.client.HSet(ctx, k.hash(bucket), key, value).Err())
}

func (k *KV) Delete(ctx context.Context, bucket, key string) error {
	if err := storage.CheckName(bucket, key); err != nil {
		return err
	}
	return mapErr(k.client.HDel(ctx, k.hash(bucket), key).Err())
}

func (k *KV) Keys(ctx context.Context, bucket string) ([]string, error) {
	if bucket == "" {
		return nil, storage.ErrInvalidBucket
	}
	keys, err := k.client.HKeys(ctx, k.hash(bucket)).Result()
	if err != nil {
		return nil, mapErr(err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (k *KV) Close() error {
	if k == nil || k.client == nil {
		return nil
	}
	return k.client.Close()
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return storage.ErrNotFound
	case errors.Is(err, redis.ErrClosed):
		return storage.ErrClosed
	default:
		return err
	}
}
