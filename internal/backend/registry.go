// Package backend implements the BackendRegistry and BackendManager
// described in spec.md §4.2: a registry of named DataBackend instances and
// a manager that fans queries out across them, merges, deduplicates, and
// orders the results.
package backend

import (
	"sort"
	"sync"

	"github.com/nlweb/query-core/pkg/schemas"
)

// Registration pairs a DataBackend instance with its endpoint metadata.
type Registration struct {
	Backend  schemas.DataBackend
	Endpoint schemas.BackendEndpoint
}

// Registry holds named DataBackend instances for the process lifetime. It
// exclusively owns its registered backends; nothing registered here holds a
// back-reference to the Registry or the Manager built on top of it
// (spec.md §9 "Backend cyclic references").
type Registry struct {
	mu    sync.RWMutex
	regs  map[string]*Registration
	order []string // registration order, used as a final deterministic tie-break
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{regs: make(map[string]*Registration)}
}

// Register adds a backend under its endpoint's id. Registering the same id
// twice replaces the previous registration.
func (r *Registry) Register(b schemas.DataBackend, endpoint schemas.BackendEndpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.regs[endpoint.ID]; !exists {
		r.order = append(r.order, endpoint.ID)
	}
	r.regs[endpoint.ID] = &Registration{Backend: b, Endpoint: endpoint}
}

// Get returns the registration for id, if any.
func (r *Registry) Get(id string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[id]
	return reg, ok
}

// Enabled returns all enabled registrations sorted by priority descending,
// then by registration order (a stable, deterministic dispatch order for
// both the serial and parallel fan-out paths).
func (r *Registry) Enabled() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Registration, 0, len(r.order))
	for _, id := range r.order {
		reg := r.regs[id]
		if reg.Endpoint.Enabled {
			out = append(out, reg)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Endpoint.Priority > out[j].Endpoint.Priority
	})
	return out
}

// WriteEndpoint returns the single registration flagged as the write
// endpoint, if any. It is not used on the read path.
func (r *Registry) WriteEndpoint() (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		reg := r.regs[id]
		if reg.Endpoint.WriteEndpoint {
			return reg, true
		}
	}
	return nil, false
}
