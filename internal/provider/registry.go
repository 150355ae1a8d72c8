package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry tracks provider instances, their declared capabilities, and
// lifecycle, dispatching lookups by instance id or domain. Iteration
// orders are sorted by instance id so dispatch stays deterministic.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]Provider)}
}

// Register adds a provider instance, replacing any existing instance with
// the same InstanceID.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[p.InstanceID()] = p
}

// Unregister removes a provider instance by id.
func (r *Registry) Unregister(instanceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, instanceID)
}

// Get returns the provider instance with the given id.
func (r *Registry) Get(instanceID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.instances[instanceID]
	if !ok {
		return nil, fmt.Errorf("provider: no instance registered with id %q", instanceID)
	}
	return p, nil
}

// All returns every registered provider instance, ordered by instance id
// for deterministic iteration.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.instances))
	for _, p := range r.instances {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstanceID() < out[j].InstanceID() })
	return out
}

// ProvidersOfType returns all registered instances of the given Type,
// ordered by instance id.
func (r *Registry) ProvidersOfType(t Type) []Provider {
	var out []Provider
	for _, p := range r.All() {
		if p.Type() == t {
			out = append(out, p)
		}
	}
	return out
}

// ProvidersSupporting returns all registered instances declaring the given
// capability, ordered by instance id.
func (r *Registry) ProvidersSupporting(cap Capability) []Provider {
	var out []Provider
	for _, p := range r.All() {
		if p.Capabilities().Has(cap) {
			out = append(out, p)
		}
	}
	return out
}

// Reload restarts a provider instance: stop, then start. A provider whose
// credentials went stale comes back available this way.
func (r *Registry) Reload(ctx context.Context, instanceID string) error {
	p, err := r.Get(instanceID)
	if err != nil {
		return err
	}
	if err := p.OnStop(ctx); err != nil {
		return err
	}
	return p.OnStart(ctx)
}

// ByDomain returns every registered instance belonging to the given
// provider domain (multiple instances may share a domain).
func (r *Registry) ByDomain(domain string) []Provider {
	var out []Provider
	for _, p := range r.All() {
		if p.Domain() == domain {
			out = append(out, p)
		}
	}
	return out
}
