// Package registry holds the name-indexed backend tables behind the storage and
// archive plugin registries.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Table maps backend names to values of B. The zero value is not usable; use New.
type Table[B any] struct {
	kind string

	mu      sync.RWMutex
	entries map[string]B
}

// New returns an empty table whose errors name kind (e.g. "archive backend").
func New[B any](kind string) *Table[B] {
	return &Table[B]{kind: kind, entries: map[string]B{}}
}

// Add stores b under name. Empty and duplicate names are rejected.
func (t *Table[B]) Add(name string, b B) error {
	if name == "" {
		return fmt.Errorf("%s name is required", t.kind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[name]; exists {
		return fmt.Errorf("%s %q already registered", t.kind, name)
	}
	t.entries[name] = b
	return nil
}

func (t *Table[B]) Get(name string) (B, error) {
	t.mu.RLock()
	b, ok := t.entries[name]
	t.mu.RUnlock()
	if !ok {
		var zero B
		return zero, fmt.Errorf("unknown %s %q", t.kind, name)
	}
	return b, nil
}

// Names returns the names of the entries accepted by keep (all when nil), sorted.
func (t *Table[B]) Names(keep func(B) bool) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.entries))
	for name, b := range t.entries {
		if keep == nil || keep(b) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// List returns the entries accepted by keep (all when nil), sorted by name.
func (t *Table[B]) List(keep func(B) bool) []B {
	names := t.Names(keep)
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]B, 0, len(names))
	for _, name := range names {
		if b, ok := t.entries[name]; ok {
			out = append(out, b)
		}
	}
	return out
}
