package model

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/Code rather than matching error strings.
type Kind string

const (
	// KindValidation marks a bad or missing field before signing or submission.
	KindValidation Kind = "Validation"
	// KindChannelNotReady marks a request attempted while the channel is not open.
	// Request methods never return it; it exists for logging and metrics attribution.
	KindChannelNotReady Kind = "ChannelNotReady"
	// KindDecode marks malformed graph text or an unparseable inbound message.
	KindDecode Kind = "Decode"
	// KindCryptoPrecondition marks derivation or signing with unusable inputs.
	KindCryptoPrecondition Kind = "CryptoPrecondition"
	// KindCrypto marks a signature or key that fails verification.
	KindCrypto Kind = "Crypto"
)

// Error is the structured error type shared by the client packages.
//
// Code is a stable identifier (e.g. KEY-001) naming the violated rule.
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches two *Error values by Kind and Code so package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func NewError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func WrapError(kind Kind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// CodeOf returns the stable Code for a structured error, or "" if unknown.
func CodeOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}
