package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"plotthread.org/client/canonical"
	"plotthread.org/client/cidutil"
	"plotthread.org/client/model"
)

// Named associates an Archive with a stable backend name.
type Named struct {
	Name    string
	Archive Archive
}

// Multi falls back across archives in slice order. Put writes only to the first.
type Multi struct {
	Archives []Archive
}

var _ Archive = Multi{}

func (m Multi) Put(ctx context.Context, r model.Representation) (cid.Cid, error) {
	if len(m.Archives) == 0 {
		return cid.Undef, errors.New("archive: Multi has no archives")
	}
	return m.Archives[0].Put(ctx, r)
}

func (m Multi) Get(ctx context.Context, id cid.Cid) (model.Representation, error) {
	return getInOrder(ctx, m.Archives, id)
}

func (m Multi) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return hasAny(ctx, m.Archives, id)
}

// Replicating writes to every backend and requires each to return the
// representation's CID. Reads fall back in order.
type Replicating struct {
	Backends []Named
}

var _ Archive = Replicating{}

// PutAll writes r to every backend and returns the per-backend CIDs. A backend
// that answers with a different CID fails the write with ErrCIDMismatch.
func (rp Replicating) PutAll(ctx context.Context, r model.Representation) (cid.Cid, map[string]cid.Cid, error) {
	if len(rp.Backends) == 0 {
		return cid.Undef, nil, errors.New("archive: Replicating has no backends")
	}
	want, err := cidutil.RepresentationCID(canonical.IdentifierOf(r))
	if err != nil {
		return cid.Undef, nil, fmt.Errorf("%w: %v", ErrInvalidCID, err)
	}
	out := make(map[string]cid.Cid, len(rp.Backends))
	for _, b := range rp.Backends {
		if b.Archive == nil {
			return cid.Undef, nil, fmt.Errorf("archive: nil backend %q", b.Name)
		}
		got, err := b.Archive.Put(ctx, r)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("archive %s: %w", b.Name, err)
		}
		out[b.Name] = got
		if !got.Equals(want) {
			return cid.Undef, out, fmt.Errorf("archive %s: %w", b.Name, ErrCIDMismatch)
		}
	}
	return want, out, nil
}

func (rp Replicating) Put(ctx context.Context, r model.Representation) (cid.Cid, error) {
	id, _, err := rp.PutAll(ctx, r)
	return id, err
}

func (rp Replicating) Get(ctx context.Context, id cid.Cid) (model.Representation, error) {
	return getInOrder(ctx, rp.archives(), id)
}

func (rp Replicating) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return hasAny(ctx, rp.archives(), id)
}

func (rp Replicating) archives() []Archive {
	out := make([]Archive, 0, len(rp.Backends))
	for _, b := range rp.Backends {
		if b.Archive != nil {
			out = append(out, b.Archive)
		}
	}
	return out
}

func getInOrder(ctx context.Context, archives []Archive, id cid.Cid) (model.Representation, error) {
	for _, a := range archives {
		r, err := a.Get(ctx, id)
		if err == nil {
			return r, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return model.Representation{}, err
	}
	return model.Representation{}, ErrNotFound
}

func hasAny(ctx context.Context, archives []Archive, id cid.Cid) (bool, error) {
	for _, a := range archives {
		ok, err := a.Has(ctx, id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
