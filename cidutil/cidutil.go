package cidutil

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"plotthread.org/client/canonical"
	"plotthread.org/client/model"
)

// RepresentationCID wraps a representation identifier in a CIDv1 using the "raw"
// multicodec and a sha3-256 multihash. The identifier already is the sha3-256 of
// the canonical bytes, so no hashing happens here.
func RepresentationCID(id string) (cid.Cid, error) {
	digest, err := canonical.IDBytes(strings.ToLower(id))
	if err != nil {
		return cid.Undef, err
	}
	mh, err := multihash.Encode(digest, multihash.SHA3_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// CIDOf returns the CID of r's canonical encoding.
func CIDOf(r model.Representation) cid.Cid {
	c, err := RepresentationCID(canonical.IdentifierOf(r))
	if err != nil {
		// IdentifierOf always yields 64 hex characters.
		panic(err)
	}
	return c
}

// IdentifierFromCID is the inverse of RepresentationCID.
func IdentifierFromCID(c cid.Cid) (string, error) {
	if !c.Defined() {
		return "", fmt.Errorf("undefined cid")
	}
	if c.Type() != cid.Raw {
		return "", fmt.Errorf("cid %s: codec 0x%x is not raw", c, c.Type())
	}
	dm, err := multihash.Decode(c.Hash())
	if err != nil {
		return "", fmt.Errorf("cid %s: %w", c, err)
	}
	if dm.Code != multihash.SHA3_256 || len(dm.Digest) != 32 {
		return "", fmt.Errorf("cid %s: multihash %s is not sha3-256", c, dm.Name)
	}
	return hex.EncodeToString(dm.Digest), nil
}

// Parse decodes a CID string and checks that it addresses a representation.
func Parse(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if _, err := IdentifierFromCID(c); err != nil {
		return cid.Undef, err
	}
	return c, nil
}
