package kvregistry

import (
	"flag"
	"fmt"

	"plotthread.org/client/internal/registry"
	"plotthread.org/client/storage"
)

// Backend is a state store a binary can open by name.
//
// Backend packages add themselves from init with MustRegister; a binary enables a
// backend by importing its package, usually blank.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// RegisterFlags adds backend-specific flags to fs.
	// It is called once per FlagSet; backends bind package-level flag variables.
	RegisterFlags func(fs *flag.FlagSet)

	// Open builds the KV from the flags RegisterFlags bound.
	Open func() (storage.KV, error)

	// OpenWithConfig builds the KV from config-file values keyed like the flags.
	OpenWithConfig func(cfg map[string]string) (storage.KV, error)
}

var table = registry.New[Backend]("state backend")

// Register adds b. Every hook and a Usage are required.
func Register(b Backend) error {
	switch {
	case b.Name == "":
		return fmt.Errorf("kvregistry: state backend name is required")
	case b.RegisterFlags == nil:
		return fmt.Errorf("kvregistry: state backend %q has no RegisterFlags", b.Name)
	case b.Open == nil || b.OpenWithConfig == nil:
		return fmt.Errorf("kvregistry: state backend %q has no Open", b.Name)
	case b.Usage == 0:
		return fmt.Errorf("kvregistry: state backend %q has no Usage", b.Name)
	}
	if err := table.Add(b.Name, b); err != nil {
		return fmt.Errorf("kvregistry: %w", err)
	}
	return nil
}

func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

func usableBy(usage Usage) func(Backend) bool {
	return func(b Backend) bool { return b.Usage.allows(usage) }
}

// List returns the backends a program with usage may offer, sorted by name.
func List(usage Usage) []Backend { return table.List(usableBy(usage)) }

func Names(usage Usage) []string { return table.Names(usableBy(usage)) }

// RegisterFlags binds the flags of every backend usable under usage, so one
// FlagSet can parse any --store choice in a single pass.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		b.RegisterFlags(fs)
	}
}

func lookup(name string, usage Usage) (Backend, error) {
	b, err := table.Get(name)
	if err != nil {
		return Backend{}, err
	}
	if !b.Usage.allows(usage) {
		return Backend{}, fmt.Errorf("state backend %q is not available here", name)
	}
	return b, nil
}

// Open opens the named backend from its parsed flags.
func Open(name string, usage Usage) (storage.KV, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, err
	}
	return b.Open()
}

// OpenWithConfig opens the named backend from config-file values.
func OpenWithConfig(name string, usage Usage, cfg map[string]string) (storage.KV, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, err
	}
	return b.OpenWithConfig(cfg)
}
