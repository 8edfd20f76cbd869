package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a process-wide singleton with a write-once initialization
// phase (Register) and a read-only serving phase (everything else)
// entered by Freeze. After Freeze it is safe for concurrent readers
// without locking; Register after Freeze panics, since the spec treats
// registered metadata as frozen at startup.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
	frozen   bool
}

// NewRegistry builds an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]Service)}
}

// Register adds a Service class during the initialization phase. It
// fails if the class id is already taken or the service declares no
// tools, both invariants from the data model.
func (r *Registry) Register(svc Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("registry: cannot register %q after startup", svc.Descriptor().Class)
	}

	desc := svc.Descriptor()
	if desc.Class == "" {
		return fmt.Errorf("registry: service class identifier must be non-empty")
	}
	if _, exists := r.services[desc.Class]; exists {
		return fmt.Errorf("registry: class %q already registered", desc.Class)
	}
	// Remote-catalog services discover their tools at request time (§4.4);
	// the "every class exposes at least one tool" invariant applies only
	// to declaratively registered classes.
	if len(svc.ToolDescriptors()) == 0 && desc.Kind != KindRemoteCatalog {
		return fmt.Errorf("registry: service %q must declare at least one tool", desc.Class)
	}

	seen := make(map[string]struct{}, len(svc.ToolDescriptors()))
	for _, td := range svc.ToolDescriptors() {
		if td.Name == "" {
			return fmt.Errorf("registry: service %q declares a tool with an empty name", desc.Class)
		}
		if td.Description == "" {
			return fmt.Errorf("registry: tool %q in service %q must declare a description", td.Name, desc.Class)
		}
		if _, dup := seen[td.Name]; dup {
			return fmt.Errorf("registry: service %q declares duplicate tool %q", desc.Class, td.Name)
		}
		seen[td.Name] = struct{}{}
	}

	r.services[desc.Class] = svc
	return nil
}

// Freeze ends the initialization phase. Subsequent reads need no lock
// discipline beyond what Go's memory model already guarantees for a
// value published before concurrent readers start.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// ListServices returns metadata for every registered class, ordered by
// class id for idempotent repeated listing.
func (r *Registry) ListServices() []ServiceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ServiceDescriptor, 0, len(r.services))
	for _, svc := range r.services {
		out = append(out, svc.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}

// ListTools returns tool metadata for one service class.
func (r *Registry) ListTools(class string) ([]ToolDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[class]
	if !ok {
		return nil, fmt.Errorf("registry: unknown service class %q", class)
	}
	return svc.ToolDescriptors(), nil
}

// Get returns the Service registered under class, if any.
func (r *Registry) Get(class string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[class]
	return svc, ok
}
