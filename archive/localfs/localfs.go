package localfs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"plotthread.org/client/archive"
	"plotthread.org/client/model"
)

// Archive keeps one read-only file per representation under a root directory.
//
// Files are sharded by the first two characters of the CID string and never
// rewritten once created.
type Archive struct {
	root string
}

// New constructs a filesystem archive rooted at root. The directory will be created if needed.
func New(root string) (*Archive, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Archive{root: root}, nil
}

func (a *Archive) Put(ctx context.Context, r model.Representation) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, b, err := archive.Encode(r)
	if err != nil {
		return cid.Undef, err
	}

	path := a.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := os.ReadFile(path)
			if rerr != nil || !bytes.Equal(existing, b) {
				return cid.Undef, archive.ErrImmutable
			}
			return id, nil
		}
		return cid.Undef, err
	}

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}
	return id, nil
}

func (a *Archive) Get(ctx context.Context, id cid.Cid) (model.Representation, error) {
	if err := archive.CheckCID(id); err != nil {
		return model.Representation{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Representation{}, err
	}
	b, err := os.ReadFile(a.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Representation{}, archive.ErrNotFound
		}
		return model.Representation{}, err
	}
	return archive.Decode(id, b)
}

func (a *Archive) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if err := archive.CheckCID(id); err != nil {
		return false, err
	}
	_, err := os.Stat(a.pathFor(id))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

func (a *Archive) pathFor(id cid.Cid) string {
	s := id.String()
	return filepath.Join(a.root, s[:2], s)
}
