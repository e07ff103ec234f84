package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Opener builds a Store from configuration. Openers should verify the
// backend is reachable so misconfiguration surfaces at startup.
type Opener func(ctx context.Context, cfg Config) (Store, error)

// Registry maps backend names to openers.
type Registry struct {
	mu       sync.RWMutex
	openers  map[string]Opener
	reserved map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		openers:  make(map[string]Opener),
		reserved: make(map[string]struct{}),
	}
}

// Register binds open to name and every alias. Later registrations replace
// earlier ones.
func (r *Registry) Register(name string, open Opener, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range append([]string{name}, aliases...) {
		n = NormalizeBackend(n)
		r.openers[n] = open
		delete(r.reserved, n)
	}
}

// Reserve records names that are recognized but not implemented. Opening
// them fails with both ErrUnsupportedBackend and ErrNotYetSupported.
func (r *Registry) Reserve(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		n = NormalizeBackend(n)
		if _, ok := r.openers[n]; ok {
			continue
		}
		r.reserved[n] = struct{}{}
	}
}

// Supports reports whether name resolves to an opener.
func (r *Registry) Supports(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.openers[NormalizeBackend(name)]
	return ok
}

// Names lists registered backend names, aliases included, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.openers))
	for n := range r.openers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open resolves cfg.Backend and opens it.
func (r *Registry) Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("store config: %w", err)
	}
	name := NormalizeBackend(cfg.Backend)

	r.mu.RLock()
	open, ok := r.openers[name]
	_, reserved := r.reserved[name]
	r.mu.RUnlock()

	if reserved {
		return nil, fmt.Errorf("%w: %w: %q", ErrUnsupportedBackend, ErrNotYetSupported, name)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, name)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	return open(ctx, cfg)
}
