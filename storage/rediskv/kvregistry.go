package rediskv

import (
	"flag"

	"plotthread.org/client/storage"
	"plotthread.org/client/storage/kvregistry"
)

var (
	flagRedisURL    string
	flagRedisPrefix string
)

func init() {
	kvregistry.MustRegister(kvregistry.Backend{
		Name:        "redis",
		Description: "Redis hashes (one per bucket)",
		Usage:       kvregistry.UsageCLI | kvregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagRedisURL, "redis-url", "", "Redis URL (for --store=redis)")
			fs.StringVar(&flagRedisPrefix, "redis-prefix", "", "Redis key prefix (for --store=redis)")
		},
		Open: func() (storage.KV, error) {
			return New(Options{URL: flagRedisURL, Prefix: flagRedisPrefix})
		},
		OpenWithConfig: func(cfg map[string]string) (storage.KV, error) {
			return New(Options{URL: cfg["redis-url"], Prefix: cfg["redis-prefix"]})
		},
	})
}
