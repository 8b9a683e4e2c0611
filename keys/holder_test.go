package keys

import (
	"context"
	"errors"
	"testing"

	"plotthread.org/client/storage/memkv"
)

func TestHolderImportSelectReload(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	h := NewHolder(kv)

	if pk, idx := h.Selected(); pk != "" || idx != -1 {
		t.Fatalf("expected empty selection, got %q %d", pk, idx)
	}

	imported, err := h.Import(ctx, "correct horse", 0)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(imported) != DefaultImportCount {
		t.Fatalf("imported %d keys, want %d", len(imported), DefaultImportCount)
	}
	if pk, idx := h.Selected(); pk != imported[0] || idx != 0 {
		t.Fatalf("expected first key selected, got %q %d", pk, idx)
	}

	if err := h.Select(ctx, imported[3]); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := h.Select(ctx, "unknown="); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}

	reloaded := NewHolder(kv)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := reloaded.PublicKeys(); len(got) != len(imported) || got[3] != imported[3] {
		t.Fatalf("reloaded keys mismatch: %v", got)
	}
	if pk, idx := reloaded.Selected(); pk != imported[3] || idx != 3 {
		t.Fatalf("reloaded selection = %q %d", pk, idx)
	}

	if err := reloaded.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(reloaded.PublicKeys()) != 0 {
		t.Fatalf("expected no keys after Delete")
	}
	empty := NewHolder(kv)
	if err := empty.Load(ctx); err != nil {
		t.Fatalf("Load after delete: %v", err)
	}
	if pk, _ := empty.Selected(); pk != "" {
		t.Fatalf("expected no selection after delete, got %q", pk)
	}
}

func TestHolderLoadEmptyKV(t *testing.T) {
	h := NewHolder(memkv.New())
	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(h.PublicKeys()) != 0 {
		t.Fatalf("expected no keys")
	}
}

func TestHolderImportRejectsEmptyPassphrase(t *testing.T) {
	h := NewHolder(memkv.New())
	if _, err := h.Import(context.Background(), "", 3); !errors.Is(err, ErrInvalidPassphrase) {
		t.Fatalf("expected ErrInvalidPassphrase, got %v", err)
	}
}

func TestCheckPassphrase(t *testing.T) {
	if _, err := CheckPassphrase("", DefaultMinScore); !errors.Is(err, ErrInvalidPassphrase) {
		t.Fatalf("expected ErrInvalidPassphrase, got %v", err)
	}
	s, err := CheckPassphrase("password", DefaultMinScore)
	if !errors.Is(err, ErrWeakPassphrase) {
		t.Fatalf("expected ErrWeakPassphrase, got %v", err)
	}
	if s.Score >= DefaultMinScore {
		t.Fatalf("expected low score, got %d", s.Score)
	}
	if _, err := CheckPassphrase("Xk#9v!qLz$2@mWp7^rTb", DefaultMinScore); err != nil {
		t.Fatalf("expected strong passphrase to pass: %v", err)
	}
}
