package testkit

import (
	"bytes"
	"context"
	"testing"

	"plotthread.org/client/storage"
)

// NewKV constructs a fresh, empty KV instance for a test.
// The returned KV MUST be isolated from other tests.
type NewKV func(t *testing.T) storage.KV

func RunKVConformance(t *testing.T, newKV NewKV) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		kv := newKV(t)
		want := []byte(`{"public_key":"abc"}`)
		if err := kv.Put(ctx, "profiles", "abc", want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := kv.Get(ctx, "profiles", "abc")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch: %q", got)
		}
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		kv := newKV(t)
		if err := kv.Put(ctx, "b", "k", []byte("one")); err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		if err := kv.Put(ctx, "b", "k", []byte("two")); err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		got, err := kv.Get(ctx, "b", "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "two" {
			t.Fatalf("expected last write to win, got %q", got)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		kv := newKV(t)
		if _, err := kv.Get(ctx, "missing-bucket", "k"); !storage.IsNotFound(err) {
			t.Fatalf("Get missing bucket: got err=%v want ErrNotFound", err)
		}
		if err := kv.Put(ctx, "b", "present", []byte("x")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := kv.Get(ctx, "b", "absent"); !storage.IsNotFound(err) {
			t.Fatalf("Get missing key: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("DeleteAndKeys", func(t *testing.T) {
		kv := newKV(t)
		for _, k := range []string{"c", "a", "b"} {
			if err := kv.Put(ctx, "b", k, []byte(k)); err != nil {
				t.Fatalf("Put %s failed: %v", k, err)
			}
		}
		keys, err := kv.Keys(ctx, "b")
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
			t.Fatalf("Keys not sorted/complete: %v", keys)
		}
		if err := kv.Delete(ctx, "b", "b"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := kv.Delete(ctx, "b", "never-existed"); err != nil {
			t.Fatalf("Delete of absent key must not fail: %v", err)
		}
		if _, err := kv.Get(ctx, "b", "b"); !storage.IsNotFound(err) {
			t.Fatalf("Get after Delete: got err=%v want ErrNotFound", err)
		}
		keys, err = kv.Keys(ctx, "empty")
		if err != nil {
			t.Fatalf("Keys(empty) failed: %v", err)
		}
		if len(keys) != 0 {
			t.Fatalf("expected no keys in unknown bucket, got %v", keys)
		}
	})

	t.Run("ReturnedBytesDoNotAlias", func(t *testing.T) {
		kv := newKV(t)
		in := []byte("immutable")
		if err := kv.Put(ctx, "b", "k", in); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		in[0] = 'X'
		got, err := kv.Get(ctx, "b", "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "immutable" {
			t.Fatalf("stored value aliased caller memory: %q", got)
		}
		got[0] = 'Y'
		again, _ := kv.Get(ctx, "b", "k")
		if string(again) != "immutable" {
			t.Fatalf("returned value aliased stored memory: %q", again)
		}
	})

	t.Run("RejectEmptyNames", func(t *testing.T) {
		kv := newKV(t)
		if err := kv.Put(ctx, "", "k", nil); err == nil {
			t.Fatalf("Put should fail for empty bucket")
		}
		if _, err := kv.Get(ctx, "b", ""); err == nil {
			t.Fatalf("Get should fail for empty key")
		}
	})
}
