package memkv

import (
	"flag"

	"plotthread.org/client/storage"
	"plotthread.org/client/storage/kvregistry"
)

func init() {
	kvregistry.MustRegister(kvregistry.Backend{
		Name:          "memory",
		Description:   "In-process KV (nothing persists)",
		Usage:         kvregistry.UsageCLI | kvregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open:          func() (storage.KV, error) { return New(), nil },
		OpenWithConfig: func(map[string]string) (storage.KV, error) {
			return New(), nil
		},
	})
}
