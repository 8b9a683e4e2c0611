package keys

import (
	"github.com/nbutton23/zxcvbn-go"

	"plotthread.org/client/model"
)

// DefaultMinScore is the weakest zxcvbn score accepted for a new key holder.
const DefaultMinScore = 3

var ErrWeakPassphrase = model.NewError(model.KindValidation, "KEY-004", "passphrase is too weak")

// Strength is password-strength feedback for a candidate passphrase.
type Strength struct {
	// Score is 0 (guessable) to 4 (very strong).
	Score     int
	Entropy   float64
	CrackTime string
}

// MeasureStrength scores passphrase with zxcvbn. userInputs are extra
// dictionary words (e.g. the node address) that should not count as entropy.
func MeasureStrength(passphrase string, userInputs ...string) Strength {
	m := zxcvbn.PasswordStrength(passphrase, userInputs)
	return Strength{Score: m.Score, Entropy: m.Entropy, CrackTime: m.CrackTimeDisplay}
}

// CheckPassphrase is the upstream gate callers run before Derive: it rejects empty
// passphrases and those scoring below minScore.
func CheckPassphrase(passphrase string, minScore int) (Strength, error) {
	if passphrase == "" {
		return Strength{}, ErrInvalidPassphrase
	}
	s := MeasureStrength(passphrase)
	if s.Score < minScore {
		return s, ErrWeakPassphrase
	}
	return s, nil
}
