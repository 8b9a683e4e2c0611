package memkv

import (
	"testing"

	"plotthread.org/client/storage"
	"plotthread.org/client/storage/testkit"
)

func TestMemKVConformance(t *testing.T) {
	testkit.RunKVConformance(t, func(t *testing.T) storage.KV {
		return New()
	})
}
