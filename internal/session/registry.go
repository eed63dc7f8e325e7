package session

import (
	"sync"

	id "opsdash/pkg/domain"
)

// Registry hands out one Manager per browser context, creating it on first
// use. The factory captures the shared collaborators; the registry only
// deals in lifetimes.
type Registry struct {
	mu       sync.Mutex
	factory  func(id.ContextID) *Manager
	managers map[id.ContextID]*Manager
	closed   bool
}

// NewRegistry builds a registry around a manager factory.
func NewRegistry(factory func(id.ContextID) *Manager) *Registry {
	return &Registry{
		factory:  factory,
		managers: make(map[id.ContextID]*Manager),
	}
}

// Get returns the manager for a context, creating it if needed. Returns nil
// after Close.
func (r *Registry) Get(ctxID id.ContextID) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if m, ok := r.managers[ctxID]; ok {
		return m
	}
	m := r.factory(ctxID)
	r.managers[ctxID] = m
	return m
}

// Evict closes and removes one context's manager, for session-cookie
// invalidation paths.
func (r *Registry) Evict(ctxID id.ContextID) {
	r.mu.Lock()
	m, ok := r.managers[ctxID]
	delete(r.managers, ctxID)
	r.mu.Unlock()
	if ok {
		m.Close()
	}
}

// Len reports how many contexts currently have a live manager.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

// Close shuts down every manager. The registry refuses new contexts
// afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	managers := make([]*Manager, 0, len(r.managers))
	for _, m := range r.managers {
		managers = append(managers, m)
	}
	r.managers = map[id.ContextID]*Manager{}
	r.closed = true
	r.mu.Unlock()

	for _, m := range managers {
		m.Close()
	}
}
