package adapters

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownSource = errors.New("unknown source")

// Registry holds the named sources available to the orchestrator.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*Source)}
}

func (r *Registry) Register(s *Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[s.Name()] = s
}

func (r *Registry) Get(name string) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[name]
	return s, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps source names to registered sources, failing on the first
// unknown name so bad requests are rejected before any network activity.
func (r *Registry) Resolve(names []string) ([]*Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make([]*Source, 0, len(names))
	for _, name := range names {
		s, ok := r.sources[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
		}
		resolved = append(resolved, s)
	}
	return resolved, nil
}
