package client

import (
	"context"

	"plotthread.org/client/canonical"
	"plotthread.org/client/ident"
	"plotthread.org/client/keys"
	"plotthread.org/client/model"
	"plotthread.org/client/protocol"
)

var (
	ErrInvalidRecipient = model.NewError(model.KindValidation, "PUSH-001", "recipient is not a complete public key")
	ErrEmptyMemo        = model.NewError(model.KindValidation, "PUSH-002", "memo is required")
	ErrNoTip            = model.NewError(model.KindValidation, "PUSH-003", "tip height is not known yet")
	ErrNoPublicKeys     = model.NewError(model.KindValidation, "PUSH-004", "no public keys imported")
)

// PushResult is the node's verdict on a pushed representation.
type PushResult struct {
	RepresentationID string
	Error            string
}

// Notification is the text shown to the user for r.
func (r PushResult) Notification() string {
	if r.Error != "" {
		return r.Error
	}
	return "Representation: " + ident.ShortenHex(r.RepresentationID) + " was executed"
}

// PushOption customises Push.
type PushOption func(*pushConfig)

type pushConfig struct {
	sign []keys.SignOption
}

// WithSignOptions passes options through to keys.Sign.
func WithSignOptions(opts ...keys.SignOption) PushOption {
	return func(c *pushConfig) { c.sign = append(c.sign, opts...) }
}

// Push signs a representation for `to` and submits it. keyIndex < 0 signs with
// the selected key.
//
// When the channel is not Open nothing is signed or sent and Push returns
// (zero, false, nil). Otherwise invalid input fails with a Validation error and
// bad key material with a CryptoPrecondition error: an index past the held keys,
// or a passphrase whose key at keyIndex is not the held one. The node's verdict arrives
// later on PushResults. With an archive configured the signed representation is
// archived too; an archive failure is logged and does not fail the push.
func (c *Client) Push(ctx context.Context, to, memo, passphrase string, keyIndex int, opts ...PushOption) (model.Representation, bool, error) {
	if c.ch.State() != protocol.Open {
		c.log.Debug("push skipped", "reason", string(model.KindChannelNotReady))
		return model.Representation{}, false, nil
	}
	if !ident.IsComplete(to) {
		return model.Representation{}, false, ErrInvalidRecipient
	}
	if memo == "" {
		return model.Representation{}, false, ErrEmptyMemo
	}
	if err := canonical.ValidateMemo(memo); err != nil {
		return model.Representation{}, false, err
	}
	height, ok := c.cache.TipHeight()
	if !ok || height == 0 {
		return model.Representation{}, false, ErrNoTip
	}
	held := c.holder.PublicKeys()
	if len(held) == 0 {
		return model.Representation{}, false, ErrNoPublicKeys
	}
	if keyIndex < 0 {
		_, keyIndex = c.holder.Selected()
		if keyIndex < 0 {
			keyIndex = 0
		}
	}
	if keyIndex >= len(held) {
		return model.Representation{}, false, keys.ErrKeyIndex
	}

	cfg := pushConfig{sign: []keys.SignOption{keys.WithSeriesLength(c.cfg.GetSeriesLength())}}
	for _, o := range opts {
		o(&cfg)
	}
	r, err := keys.Sign(to, memo, height, keyIndex, passphrase, cfg.sign...)
	if err != nil {
		return model.Representation{}, false, err
	}
	if r.By == nil || *r.By != held[keyIndex] {
		return model.Representation{}, false, keys.ErrKeyMismatch
	}
	id := canonical.IdentifierOf(r)

	if !c.ch.PushRepresentation(ctx, r) {
		return r, false, nil
	}
	c.log.Info("representation pushed", "representation_id", id, "series", *r.Series)

	if c.archive != nil {
		if cid, err := c.archive.Put(ctx, r); err != nil {
			c.log.Warn("archive failed", "representation_id", id, "error", err)
		} else {
			c.log.Debug("representation archived", "representation_id", id, "cid", cid.String())
		}
	}
	return r, true, nil
}
