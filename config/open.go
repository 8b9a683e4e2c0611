package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"plotthread.org/client/archive"
	"plotthread.org/client/storage"
	"plotthread.org/client/storage/kvregistry"
)

// OpenStorage opens the configured KV backend. The backend package must be
// linked into the binary (usually by a blank import).
func (c *Config) OpenStorage(usage kvregistry.Usage) (storage.KV, error) {
	var s *StorageConfig
	if c != nil {
		s = c.Storage
	}
	cfg := map[string]string{}
	if s != nil {
		cfg = s.Config
	}
	kv, err := kvregistry.OpenWithConfig(s.GetBackend(), usage, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: storage: %w", err)
	}
	return kv, nil
}

// OpenArchive opens every configured archive backend. With no backends it
// returns a nil Archive and a no-op closer.
//
// If preferred is non-empty, that backend is moved to the front (and thus used
// for writes under the "first" policy).
func (c *Config) OpenArchive(preferred string) (archive.Archive, func() error, error) {
	noop := func() error { return nil }
	if c == nil || c.Archive == nil || len(c.Archive.Backends) == 0 {
		return nil, noop, nil
	}
	a := c.Archive
	if err := a.Validate(); err != nil {
		return nil, nil, err
	}

	ordered := append([]BackendConfig(nil), a.Backends...)
	if preferred != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferred || ordered[i].ID == preferred {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("config: preferred archive backend %q not configured", preferred)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	named := make([]archive.Named, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	for _, b := range ordered {
		arc, closeFn, err := archive.Open(b.Name, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("config: archive %s: %w", b.id(), err)
		}
		named = append(named, archive.Named{Name: b.id(), Archive: arc})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	if len(named) == 1 {
		return named[0].Archive, closeAll, nil
	}
	if a.WritePolicy == "all" {
		return archive.Replicating{Backends: named}, closeAll, nil
	}
	archives := make([]archive.Archive, 0, len(named))
	for _, n := range named {
		archives = append(archives, n.Archive)
	}
	return archive.Multi{Archives: archives}, closeAll, nil
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var l *LogConfig
	if c != nil {
		l = c.Log
	}
	level, err := parseLevel(l.GetLevel())
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.GetFormat() == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("config: invalid log.level %q", s)
	}
	return level, nil
}
