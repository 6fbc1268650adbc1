// Package registry maps configuration names to BMS decoders, inverter
// writers and serial drivers.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores factories of one kind by name.
type Registry[F any] struct {
	kind string
	repo map[string]F
	mu   sync.RWMutex
}

// New initializes an empty registry. kind names the entries in errors.
func New[F any](kind string) *Registry[F] {
	return &Registry[F]{
		kind: kind,
		repo: make(map[string]F),
	}
}

// Register adds a factory by name. Names are unique.
func (r *Registry[F]) Register(name string, f F) error {
	if name == "" {
		return fmt.Errorf("registry: empty %s name", r.kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.repo[name]; ok {
		return fmt.Errorf("registry: %s %q already registered", r.kind, name)
	}
	r.repo[name] = f
	return nil
}

// Get returns the factory registered under name.
func (r *Registry[F]) Get(name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.repo[name]
	if !ok {
		return f, fmt.Errorf("registry: unknown %s %q (known: %s)", r.kind, name, strings.Join(r.names(), ", "))
	}
	return f, nil
}

// Names returns the registered names, sorted.
func (r *Registry[F]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry[F]) names() []string {
	out := make([]string, 0, len(r.repo))
	for name := range r.repo {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
