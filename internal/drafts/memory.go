package drafts

import (
	"context"
	"sync"
	"time"
)

type memDraft struct {
	payload   []byte
	expiresAt time.Time
}

type memStore struct {
	mu     sync.RWMutex
	drafts map[Key]memDraft
	now    func() time.Time
}

// NewMemoryStore keeps drafts in process memory; they vanish on restart.
func NewMemoryStore() Store {
	return &memStore{drafts: make(map[Key]memDraft), now: time.Now}
}

func (m *memStore) Put(_ context.Context, k Key, payload []byte, expiresAt time.Time) error {
	cp := append([]byte(nil), payload...)
	m.mu.Lock()
	m.drafts[k] = memDraft{payload: cp, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

func (m *memStore) Get(_ context.Context, k Key) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[k]
	if !ok || !d.expiresAt.After(m.now()) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), d.payload...), nil
}

func (m *memStore) Delete(_ context.Context, k Key) error {
	m.mu.Lock()
	delete(m.drafts, k)
	m.mu.Unlock()
	return nil
}

func (m *memStore) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, d := range m.drafts {
		if !d.expiresAt.After(now) {
			delete(m.drafts, k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }
