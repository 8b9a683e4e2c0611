package boltkv

import (
	"context"
	"path/filepath"
	"testing"

	"plotthread.org/client/storage"
	"plotthread.org/client/storage/testkit"
)

func TestBoltKVConformance(t *testing.T) {
	testkit.RunKVConformance(t, func(t *testing.T) storage.KV {
		kv, err := Open(filepath.Join(t.TempDir(), "state.db"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() { _ = kv.Close() })
		return kv
	})
}

func TestBoltKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	kv, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := kv.Put(ctx, "keys", "public_keys", []byte(`["a"]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	kv, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()
	got, err := kv.Get(ctx, "keys", "public_keys")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `["a"]` {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestBoltKVOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
