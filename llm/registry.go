package llm

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderRegistry holds the configured providers keyed by name, with an
// optional default. Safe for concurrent use; the adapter's owner creates
// one per host session.
type ProviderRegistry struct {
	mu              sync.RWMutex
	providers       map[string]Provider
	defaultProvider string
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]Provider)}
}

// Register adds a provider under its own Name. An existing provider with
// the same name is replaced. The first registered provider becomes the
// default until SetDefault overrides it.
func (r *ProviderRegistry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.providers) == 0 {
		r.defaultProvider = p.Name()
	}
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name.
func (r *ProviderRegistry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Default returns the default provider, or an error when the registry is
// empty or the default name no longer resolves.
func (r *ProviderRegistry) Default() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return nil, fmt.Errorf("no default provider registered")
	}
	return p, nil
}

// SetDefault designates a registered provider as the default.
func (r *ProviderRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider %q not registered", name)
	}
	r.defaultProvider = name
	return nil
}

// List returns the sorted names of all registered providers.
func (r *ProviderRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
