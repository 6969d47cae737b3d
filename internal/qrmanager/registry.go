package qrmanager

import (
	"sync"
	"time"
)

type entry struct {
	m        *Manager
	lastUsed time.Time
}

// Registry hands out one Manager per browser session.
type Registry struct {
	backend Backend
	now     func() time.Time

	mu       sync.Mutex
	managers map[string]*entry
}

func NewRegistry(backend Backend) *Registry {
	return &Registry{backend: backend, now: time.Now, managers: map[string]*entry{}}
}

func (r *Registry) For(browserID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.managers[browserID]
	if !ok {
		e = &entry{m: New(r.backend)}
		r.managers[browserID] = e
	}
	e.lastUsed = r.now()
	return e.m
}

// Drop forgets a browser's working set, e.g. when its user changes.
func (r *Registry) Drop(browserID string) {
	r.mu.Lock()
	delete(r.managers, browserID)
	r.mu.Unlock()
}

// Evict removes managers idle for longer than idle and returns how many went.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.managers {
		if e.lastUsed.Before(cutoff) {
			delete(r.managers, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}
