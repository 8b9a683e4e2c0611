// Package archive stores signed representations addressed by CID.
//
// The CID of a representation is derived from its identifier (see cidutil), so
// an archive entry can be located from a representation id alone and every read
// can be checked against the address it was requested under.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"plotthread.org/client/canonical"
	"plotthread.org/client/cidutil"
	"plotthread.org/client/model"
)

var (
	ErrNotFound    = errors.New("archive: not found")
	ErrInvalidCID  = errors.New("archive: invalid cid")
	ErrCIDMismatch = errors.New("archive: cid mismatch")
	ErrImmutable   = errors.New("archive: immutability violation")
)

// Archive is an immutable, CID-addressed representation store.
//
// Put only accepts representations whose signature verifies. Putting the same
// representation twice is not an error. Get fails with ErrCIDMismatch if the
// stored bytes do not hash to the requested CID.
type Archive interface {
	Put(ctx context.Context, r model.Representation) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) (model.Representation, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}

// Encode verifies r and returns its CID and stored bytes.
func Encode(r model.Representation) (cid.Cid, []byte, error) {
	if err := canonical.Verify(r); err != nil {
		return cid.Undef, nil, err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return cid.Undef, nil, err
	}
	return cidutil.CIDOf(r), b, nil
}

// Decode parses stored bytes and checks them against the CID they were read under.
func Decode(id cid.Cid, b []byte) (model.Representation, error) {
	want, err := cidutil.IdentifierFromCID(id)
	if err != nil {
		return model.Representation{}, fmt.Errorf("%w: %v", ErrInvalidCID, err)
	}
	var r model.Representation
	if err := json.Unmarshal(b, &r); err != nil {
		return model.Representation{}, fmt.Errorf("%w: %v", ErrCIDMismatch, err)
	}
	if canonical.IdentifierOf(r) != want {
		return model.Representation{}, ErrCIDMismatch
	}
	return r, nil
}

// CheckCID rejects CIDs that cannot address a representation.
func CheckCID(id cid.Cid) error {
	if _, err := cidutil.IdentifierFromCID(id); err != nil {
		return ErrInvalidCID
	}
	return nil
}
