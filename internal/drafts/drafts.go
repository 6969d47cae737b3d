// Package drafts stores short-lived per-browser value objects (the shirt
// customization and the signup progress) between page loads.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"qrmarket/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned by stores for a missing or expired draft.
var ErrNotFound = errors.New("draft not found")

type Key struct {
	BrowserID string
	Kind      models.DraftKind
}

func (k Key) String() string { return k.BrowserID + "/" + string(k.Kind) }

// Store is a driver: raw payloads keyed by browser and kind.
type Store interface {
	Put(ctx context.Context, k Key, payload []byte, expiresAt time.Time) error
	Get(ctx context.Context, k Key) ([]byte, error)
	Delete(ctx context.Context, k Key) error
	// Sweep drops drafts that expired before now.
	Sweep(ctx context.Context, now time.Time) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Service encodes drafts and applies the idle lifetime.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{store: store, ttl: ttl, now: time.Now}
}

func (s *Service) Store() Store { return s.store }

func (s *Service) Save(ctx context.Context, browserID string, kind models.DraftKind, v any) error {
	return s.SaveFor(ctx, browserID, kind, v, s.ttl)
}

// SaveFor is Save with a lifetime other than the service default.
func (s *Service) SaveFor(ctx context.Context, browserID string, kind models.DraftKind, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s draft: %w", kind, err)
	}
	return s.store.Put(ctx, Key{browserID, kind}, b, s.now().Add(ttl))
}

// Load decodes the draft into dst and reports whether one existed.
func (s *Service) Load(ctx context.Context, browserID string, kind models.DraftKind, dst any) (bool, error) {
	b, err := s.store.Get(ctx, Key{browserID, kind})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode %s draft: %w", kind, err)
	}
	return true, nil
}

// Consume is Load followed by Clear.
func (s *Service) Consume(ctx context.Context, browserID string, kind models.DraftKind, dst any) (bool, error) {
	ok, err := s.Load(ctx, browserID, kind, dst)
	if err != nil || !ok {
		return ok, err
	}
	return true, s.Clear(ctx, browserID, kind)
}

func (s *Service) Clear(ctx context.Context, browserID string, kind models.DraftKind) error {
	err := s.store.Delete(ctx, Key{browserID, kind})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) Sweep(ctx context.Context) (int, error) {
	return s.store.Sweep(ctx, s.now())
}
