package boltkv

import (
	"flag"
	"fmt"

	"plotthread.org/client/storage"
	"plotthread.org/client/storage/kvregistry"
)

var (
	flagBoltPath string
)

func init() {
	kvregistry.MustRegister(kvregistry.Backend{
		Name:        "bolt",
		Description: "bbolt database file",
		Usage:       kvregistry.UsageCLI | kvregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagBoltPath, "bolt-path", "", "bbolt state file (for --store=bolt)")
		},
		Open: func() (storage.KV, error) {
			if flagBoltPath == "" {
				return nil, fmt.Errorf("missing --bolt-path")
			}
			return Open(flagBoltPath)
		},
		OpenWithConfig: func(cfg map[string]string) (storage.KV, error) {
			path := cfg["bolt-path"]
			if path == "" {
				return nil, fmt.Errorf("bolt: missing bolt-path")
			}
			return Open(path)
		},
	})
}
