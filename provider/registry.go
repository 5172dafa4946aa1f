package provider

import (
	"sort"
	"sync"

	"github.com/go-logr/logr"
)

// Registry maps provider ids to providers. The zero value is not usable;
// construct with NewRegistry. All methods are safe for concurrent use: a
// single RWMutex guards the table so lookups never observe a
// partially-applied registration.
type Registry struct {
	log logr.Logger

	mu        sync.RWMutex
	providers map[string]Provider
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger routes registry diagnostics to log. The default discards them.
func WithLogger(log logr.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		log:       logr.Discard(),
		providers: make(map[string]Provider),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds p under id, replacing any previous binding. Last write
// wins; re-registering an id is not an error.
func (r *Registry) Register(id string, p Provider) error {
	if id == "" {
		return ErrEmptyID
	}
	if p == nil {
		return ErrNilProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, replaced := r.providers[id]; replaced {
		r.log.V(1).Info("replacing provider registration", "id", id)
	} else {
		r.log.V(1).Info("registering provider", "id", id)
	}
	r.providers[id] = p
	return nil
}

// MustRegister is Register panicking on error, for program setup paths.
func (r *Registry) MustRegister(id string, p Provider) {
	if err := r.Register(id, p); err != nil {
		panic(err)
	}
}

// Lookup returns the provider bound to id, or a *NotFoundError carrying the
// requested id.
func (r *Registry) Lookup(id string) (Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return p, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[id]
	return ok
}

// IDs returns the registered provider ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Reset removes every registration. Intended for test fixtures.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[string]Provider)
}
