package memkv

import (
	"context"
	"sort"
	"sync"

	"plotthread.org/client/storage"
)

// KV is an in-process storage.KV. Nothing survives the process.
type KV struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

var _ storage.KV = (*KV)(nil)

func New() *KV {
	return &KV{buckets: map[string]map[string][]byte{}}
}

func (m *KV) Get(_ context.Context, bucket, key string) ([]byte, error) {
	if err := storage.CheckName(bucket, key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storage.ErrClosed
	}
	v, ok := m.buckets[bucket][key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *KV) Put(_ context.Context, bucket, key string, value []byte) error {
	if err := storage.CheckName(bucket, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storage.ErrClosed
	}
	b, ok := m.buckets[bucket]
	if !ok {
		b = map[string][]byte{}
		m.buckets[bucket] = b
	}
	b[key] = append([]byte(nil), value...)
	return nil
}

func (m *KV) Delete(_ context.Context, bucket, key string) error {
	if err := storage.CheckName(bucket, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storage.ErrClosed
	}
	delete(m.buckets[bucket], key)
	return nil
}

func (m *KV) Keys(_ context.Context, bucket string) ([]string, error) {
	if bucket == "" {
		return nil, storage.ErrInvalidBucket
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storage.ErrClosed
	}
	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *KV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
