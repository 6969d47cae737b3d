// Package qrmanager keeps a per-browser working set of QR codes in step with
// the backend. The set only ever reflects confirmed server responses.
package qrmanager

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"qrmarket/internal/models"
)

var (
	// ErrBusy rejects a mutation on an id that already has one in flight.
	ErrBusy = errors.New("another operation on this QR code is still in progress")
	// ErrAlreadyInactive rejects disabling a code known to be inactive.
	ErrAlreadyInactive = errors.New("QR code is already inactive")
)

// Backend is the QR code API the manager drives.
type Backend interface {
	Create(ctx context.Context, in models.CreateQRCodeInput) (models.QRCode, error)
	List(ctx context.Context) ([]models.QRCode, error)
	Get(ctx context.Context, id string) (models.QRCode, error)
	Update(ctx context.Context, id string, in models.UpdateQRCodeInput) (models.QRCode, error)
	RotateLink(ctx context.Context, id, destinationURL string) (models.QRCode, error)
	Disable(ctx context.Context, id string) (models.QRCode, error)
	Delete(ctx context.Context, id string) error
}

// State is a copy of what a page renders.
type State struct {
	Items     []models.QRCode
	IsLoading bool
	Error     string
}

type Manager struct {
	backend Backend
	reads   singleflight.Group

	mu      sync.Mutex
	items   []models.QRCode
	loading int
	errMsg  string
	busy    map[string]struct{}
	deleted map[string]struct{}
}

func New(backend Backend) *Manager {
	return &Manager{
		backend: backend,
		busy:    map[string]struct{}{},
		deleted: map[string]struct{}{},
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.QRCode, len(m.items))
	copy(items, m.items)
	return State{Items: items, IsLoading: m.loading > 0, Error: m.errMsg}
}

func (m *Manager) ClearError() {
	m.mu.Lock()
	m.errMsg = ""
	m.mu.Unlock()
}

// Find returns the cached code with id, if any.
func (m *Manager) Find(id string) (models.QRCode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(id); i >= 0 {
		return m.items[i], true
	}
	return models.QRCode{}, false
}

func (m *Manager) index(id string) int {
	for i := range m.items {
		if m.items[i].ID == id {
			return i
		}
	}
	return -1
}

// begin marks an operation as started. A non-empty id is reserved until end.
func (m *Manager) begin(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		if _, ok := m.busy[id]; ok {
			return ErrBusy
		}
		m.busy[id] = struct{}{}
	}
	m.loading++
	m.errMsg = ""
	return nil
}

func (m *Manager) end(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		delete(m.busy, id)
	}
	m.loading--
	if err != nil {
		m.errMsg = err.Error()
	}
}

// Fetch replaces the working set with the server's list.
func (m *Manager) Fetch(ctx context.Context) (err error) {
	_ = m.begin("")
	defer func() { m.end("", err) }()

	list, err := m.backend.List(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = m.items[:0]
	for _, q := range list {
		if _, gone := m.deleted[q.ID]; !gone {
			m.items = append(m.items, q)
		}
	}
	return nil
}

func (m *Manager) Create(ctx context.Context, in models.CreateQRCodeInput) (q models.QRCode, err error) {
	_ = m.begin("")
	defer func() { m.end("", err) }()

	q, err = m.backend.Create(ctx, in)
	if err != nil {
		return models.QRCode{}, err
	}
	m.mu.Lock()
	if _, gone := m.deleted[q.ID]; !gone && m.index(q.ID) < 0 {
		m.items = append(m.items, q)
	}
	m.mu.Unlock()
	return q, nil
}

// Get reads one code; concurrent reads of the same id share a single request.
// It records errors but neither flips the loading flag nor touches the set.
func (m *Manager) Get(ctx context.Context, id string) (models.QRCode, error) {
	m.ClearError()
	v, err, _ := m.reads.Do(id, func() (any, error) {
		return m.backend.Get(ctx, id)
	})
	if err != nil {
		m.mu.Lock()
		m.errMsg = err.Error()
		m.mu.Unlock()
		return models.QRCode{}, err
	}
	return v.(models.QRCode), nil
}

func (m *Manager) Update(ctx context.Context, id string, in models.UpdateQRCodeInput) (models.QRCode, error) {
	return m.mutate(id, func() (models.QRCode, error) { return m.backend.Update(ctx, id, in) })
}

func (m *Manager) RotateLink(ctx context.Context, id, destinationURL string) (models.QRCode, error) {
	return m.mutate(id, func() (models.QRCode, error) { return m.backend.RotateLink(ctx, id, destinationURL) })
}

func (m *Manager) Disable(ctx context.Context, id string) (models.QRCode, error) {
	if q, ok := m.Find(id); ok && !q.IsActive {
		m.mu.Lock()
		m.errMsg = ErrAlreadyInactive.Error()
		m.mu.Unlock()
		return q, ErrAlreadyInactive
	}
	return m.mutate(id, func() (models.QRCode, error) { return m.backend.Disable(ctx, id) })
}

// mutate runs op under id's reservation and replaces the matching entry on success.
func (m *Manager) mutate(id string, op func() (models.QRCode, error)) (q models.QRCode, err error) {
	if err := m.begin(id); err != nil {
		return models.QRCode{}, err
	}
	defer func() { m.end(id, err) }()

	q, err = op()
	if err != nil {
		return models.QRCode{}, err
	}
	m.mu.Lock()
	if i := m.index(id); i >= 0 {
		m.items[i] = q
	}
	m.mu.Unlock()
	return q, nil
}

func (m *Manager) Delete(ctx context.Context, id string) (err error) {
	if err := m.begin(id); err != nil {
		return err
	}
	defer func() { m.end(id, err) }()

	if err = m.backend.Delete(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	m.deleted[id] = struct{}{}
	if i := m.index(id); i >= 0 {
		m.items = append(m.items[:i], m.items[i+1:]...)
	}
	m.mu.Unlock()
	return nil
}
