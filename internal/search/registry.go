package search

import (
	"fmt"
	"strings"
)

// autoPriority is the order used when neither an explicit nor a preferred
// backend applies. DuckDuckGo is the unconditional last resort.
var autoPriority = []string{SerpAPIName, YouComName, DuckDuckGoName}

// Registry is an insertion-ordered set of uniquely named backends.
// It is read-only after NewRegistry returns.
type Registry struct {
	order    []string
	backends map[string]Backend
}

// NewRegistry registers backends in the given order.
func NewRegistry(backends ...Backend) (*Registry, error) {
	r := &Registry{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		if b == nil {
			continue
		}
		name := b.Name()
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("backend name must not be empty")
		}
		if _, dup := r.backends[name]; dup {
			return nil, fmt.Errorf("backend already registered: %s", name)
		}
		r.backends[name] = b
		r.order = append(r.order, name)
	}
	return r, nil
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, bool) {
	b, ok := r.backends[name]
	return b, ok
}

// Names lists registered backend names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Available lists the names of available backends in registration order.
func (r *Registry) Available() []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.backends[name].Available() {
			out = append(out, name)
		}
	}
	return out
}

// Len reports how many backends are registered.
func (r *Registry) Len() int { return len(r.order) }

// Select picks a backend: explicit if registered, else preferred if
// registered, else the first available backend in auto priority, else the
// first registered backend. Availability of explicit and preferred choices is
// left to the caller.
func (r *Registry) Select(explicit, preferred string) (Backend, error) {
	if r.Len() == 0 {
		return nil, &Error{Kind: ErrNoBackends}
	}
	if explicit != "" {
		if b, ok := r.backends[explicit]; ok {
			return b, nil
		}
	}
	if preferred != "" {
		if b, ok := r.backends[preferred]; ok {
			return b, nil
		}
	}
	for _, name := range autoPriority {
		if b, ok := r.backends[name]; ok && b.Available() {
			return b, nil
		}
	}
	return r.backends[r.order[0]], nil
}

// Fallbacks returns available backends other than exclude, in registration order.
func (r *Registry) Fallbacks(exclude string) []Backend {
	var out []Backend
	for _, name := range r.order {
		if name == exclude {
			continue
		}
		if b := r.backends[name]; b.Available() {
			out = append(out, b)
		}
	}
	return out
}
