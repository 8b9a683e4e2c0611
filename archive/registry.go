package archive

import (
	"fmt"

	"plotthread.org/client/internal/registry"
)

// Backend describes an archive implementation that can be opened by name.
type Backend struct {
	Name        string
	Description string

	// Open constructs the archive from string settings. The returned func, if
	// non-nil, releases it.
	Open func(cfg map[string]string) (Archive, func() error, error)
}

var backends = registry.New[Backend]("archive backend")

func Register(b Backend) error {
	if b.Open == nil {
		return fmt.Errorf("archive backend %q: Open is required", b.Name)
	}
	return backends.Add(b.Name, b)
}

func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns the registered backends sorted by name.
func List() []Backend { return backends.List(nil) }

// Open opens the named backend. Backends register themselves when their package
// is imported.
func Open(name string, cfg map[string]string) (Archive, func() error, error) {
	b, err := backends.Get(name)
	if err != nil {
		return nil, nil, err
	}
	return b.Open(cfg)
}
