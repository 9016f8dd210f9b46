package memory

import (
	"context"
	"sync"
)

// HostRegistry is an in-memory authoring-key → host-connections set.
type HostRegistry struct {
	mu    sync.RWMutex
	hosts map[string]map[string]struct{}
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{hosts: make(map[string]map[string]struct{})}
}

func (r *HostRegistry) Add(_ context.Context, key, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.hosts[key]
	if !ok {
		set = make(map[string]struct{})
		r.hosts[key] = set
	}
	set[connectionID] = struct{}{}
	return nil
}

func (r *HostRegistry) Remove(_ context.Context, key, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.hosts[key]; ok {
		delete(set, connectionID)
		if len(set) == 0 {
			delete(r.hosts, key)
		}
	}
	return nil
}

func (r *HostRegistry) Connections(_ context.Context, key string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.hosts[key]
	conns := make([]string, 0, len(set))
	for connectionID := range set {
		conns = append(conns, connectionID)
	}
	return conns, nil
}
