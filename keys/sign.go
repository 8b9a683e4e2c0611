package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"io"
	"math/big"
	"time"

	"plotthread.org/client/canonical"
	"plotthread.org/client/model"
)

// DefaultSeriesLength is the number of plot heights grouped into one series.
const DefaultSeriesLength = 1000

// maxNonce is the exclusive upper bound of a representation nonce (2^31 - 1).
const maxNonce = 1<<31 - 1

var ErrMissingContext = model.NewError(model.KindValidation, "SIGN-001", "missing recipient, memo or tip height")

type signConfig struct {
	now          func() time.Time
	rand         io.Reader
	seriesLength uint64
}

// SignOption customises Sign.
type SignOption func(*signConfig)

// WithClock overrides the wall clock used for the representation time.
func WithClock(now func() time.Time) SignOption {
	return func(c *signConfig) { c.now = now }
}

// WithRandom overrides the randomness source used for the nonce.
func WithRandom(r io.Reader) SignOption {
	return func(c *signConfig) { c.rand = r }
}

// WithSeriesLength overrides DefaultSeriesLength. Zero is ignored.
func WithSeriesLength(n uint64) SignOption {
	return func(c *signConfig) {
		if n > 0 {
			c.seriesLength = n
		}
	}
}

// Sign builds and signs a representation for `to` with the key at keyIndex.
//
// Exactly keyIndex+1 keys are derived and all of them are destroyed before Sign
// returns. The series is tipHeight/seriesLength + 1.
func Sign(to, memo string, tipHeight uint64, keyIndex int, passphrase string, opts ...SignOption) (model.Representation, error) {
	cfg := signConfig{now: time.Now, rand: rand.Reader, seriesLength: DefaultSeriesLength}
	for _, o := range opts {
		o(&cfg)
	}

	if to == "" || memo == "" || tipHeight == 0 {
		return model.Representation{}, ErrMissingContext
	}
	if err := canonical.ValidateMemo(memo); err != nil {
		return model.Representation{}, err
	}

	nonce, err := rand.Int(cfg.rand, big.NewInt(maxNonce))
	if err != nil {
		return model.Representation{}, model.WrapError(model.KindCryptoPrecondition, "SIGN-010", "nonce generation failed", err)
	}
	n := uint32(nonce.Uint64())
	series := tipHeight/cfg.seriesLength + 1

	var out model.Representation
	err = WithKey(passphrase, keyIndex, func(kp KeyPair) error {
		by := kp.PublicKey
		r := model.Representation{
			Time:   uint64(cfg.now().Unix()),
			Nonce:  &n,
			By:     &by,
			For:    to,
			Memo:   memo,
			Series: &series,
		}
		msg, err := canonical.IDBytes(canonical.IdentifierOf(r))
		if err != nil {
			return err
		}
		sig := base64.StdEncoding.EncodeToString(ed25519.Sign(kp.PrivateKey, msg))
		r.Signature = &sig
		out = r
		return nil
	})
	if err != nil {
		return model.Representation{}, err
	}
	return out, nil
}
