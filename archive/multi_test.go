package archive_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"

	"plotthread.org/client/archive"
	"plotthread.org/client/archive/localfs"
	"plotthread.org/client/cidutil"
	"plotthread.org/client/keys"
	"plotthread.org/client/model"
)

func signed(t *testing.T, memo string) model.Representation {
	t.Helper()
	r, err := keys.Sign("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=", memo, 7, 0, "correct horse")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return r
}

func newLocal(t *testing.T) *localfs.Archive {
	t.Helper()
	a, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	return a
}

// wrongCID answers every Put with an unrelated CID.
type wrongCID struct{ archive.Archive }

func (w wrongCID) Put(context.Context, model.Representation) (cid.Cid, error) {
	return cidutil.RepresentationCID(strings.Repeat("11", 32))
}

func TestMulti_PutFirstGetFallback(t *testing.T) {
	ctx := context.Background()
	first, second := newLocal(t), newLocal(t)
	m := archive.Multi{Archives: []archive.Archive{first, second}}

	r := signed(t, "multi")
	id, err := m.Put(ctx, r)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, _ := second.Has(ctx, id); ok {
		t.Fatalf("Multi.Put wrote past the first archive")
	}

	// Only present in the second archive: reads fall through.
	r2 := signed(t, "second only")
	id2, err := second.Put(ctx, r2)
	if err != nil {
		t.Fatalf("second.Put: %v", err)
	}
	got, err := m.Get(ctx, id2)
	if err != nil || got.Memo != "second only" {
		t.Fatalf("Get fallback: %v %+v", err, got)
	}
	if ok, err := m.Has(ctx, id2); err != nil || !ok {
		t.Fatalf("Has fallback: %v %v", ok, err)
	}

	missing := cidutil.CIDOf(signed(t, "never stored"))
	if _, err := m.Get(ctx, missing); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplicating_WritesAll(t *testing.T) {
	ctx := context.Background()
	a, b := newLocal(t), newLocal(t)
	rp := archive.Replicating{Backends: []archive.Named{{Name: "a", Archive: a}, {Name: "b", Archive: b}}}

	r := signed(t, "everywhere")
	id, per, err := rp.PutAll(ctx, r)
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if len(per) != 2 || !per["a"].Equals(id) || !per["b"].Equals(id) {
		t.Fatalf("unexpected per-backend CIDs: %v", per)
	}
	for name, x := range map[string]archive.Archive{"a": a, "b": b} {
		if ok, _ := x.Has(ctx, id); !ok {
			t.Fatalf("backend %s missing the representation", name)
		}
	}
}

func TestReplicating_CIDMismatch(t *testing.T) {
	ctx := context.Background()
	rp := archive.Replicating{Backends: []archive.Named{
		{Name: "good", Archive: newLocal(t)},
		{Name: "liar", Archive: wrongCID{newLocal(t)}},
	}}
	if _, err := rp.Put(ctx, signed(t, "mismatch")); !errors.Is(err, archive.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}
