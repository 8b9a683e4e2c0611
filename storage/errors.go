package storage

import "errors"

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrInvalidBucket = errors.New("storage: invalid bucket")
	ErrInvalidKey    = errors.New("storage: invalid key")
	ErrClosed        = errors.New("storage: closed")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// CheckName validates a bucket or key name shared by every backend.
func CheckName(bucket, key string) error {
	if bucket == "" {
		return ErrInvalidBucket
	}
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
