package drafts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"qrmarket/internal/models"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{"memory": NewMemoryStore()}

	bs, err := NewBoltStore(filepath.Join(t.TempDir(), "drafts.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	out["bolt"] = bs

	if url := os.Getenv("QRMARKET_TEST_REDIS"); url != "" {
		rs, err := NewRedisStore(url)
		if err != nil {
			t.Fatalf("open redis: %v", err)
		}
		out["redis"] = rs
	}
	for _, s := range out {
		s := s
		t.Cleanup(func() { _ = s.Close() })
	}
	return out
}

func TestSaveLoadConsume(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			svc := NewService(store, time.Hour)
			in := models.ShirtCustomization{ProductID: "p1", ShirtSize: "M", QRCodeText: "hello", Price: 24.5}
			if err := svc.Save(ctx, "b1", models.DraftShirtCustomization, in); err != nil {
				t.Fatalf("save: %v", err)
			}

			var got models.ShirtCustomization
			ok, err := svc.Load(ctx, "b1", models.DraftShirtCustomization, &got)
			if err != nil || !ok || got != in {
				t.Fatalf("expected %+v, got %+v ok=%v err=%v", in, got, ok, err)
			}

			var other models.ShirtCustomization
			if ok, _ := svc.Load(ctx, "b2", models.DraftShirtCustomization, &other); ok {
				t.Errorf("drafts must be scoped to their browser")
			}

			got = models.ShirtCustomization{}
			if ok, err := svc.Consume(ctx, "b1", models.DraftShirtCustomization, &got); err != nil || !ok || got.ProductID != "p1" {
				t.Fatalf("consume: %+v ok=%v err=%v", got, ok, err)
			}
			if ok, _ := svc.Load(ctx, "b1", models.DraftShirtCustomization, &got); ok {
				t.Errorf("consumed draft must be gone")
			}
			if err := svc.Clear(ctx, "b1", models.DraftShirtCustomization); err != nil {
				t.Errorf("clearing a missing draft must succeed, got %v", err)
			}
		})
	}
}

func TestSignupSecretsNotPersisted(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), time.Hour)
	in := models.SignupDraft{Step: models.StepSetPassword, Email: "a@b.com", OTP: "123456", Password: "Secret123"}
	if err := svc.Save(ctx, "b1", models.DraftSignup, in); err != nil {
		t.Fatal(err)
	}
	var got models.SignupDraft
	if _, err := svc.Load(ctx, "b1", models.DraftSignup, &got); err != nil {
		t.Fatal(err)
	}
	if got.Step != models.StepSetPassword || got.Email != "a@b.com" {
		t.Errorf("unexpected draft %+v", got)
	}
	if got.OTP != "" || got.Password != "" {
		t.Errorf("secrets must not be stored, got %+v", got)
	}
}

func TestExpiryAndSweep(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		if name == "redis" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			if err := store.Put(ctx, Key{"b1", models.DraftSignup}, []byte(`{}`), now.Add(-time.Second)); err != nil {
				t.Fatal(err)
			}
			if err := store.Put(ctx, Key{"b2", models.DraftSignup}, []byte(`{}`), now.Add(time.Hour)); err != nil {
				t.Fatal(err)
			}
			if _, err := store.Get(ctx, Key{"b1", models.DraftSignup}); err != ErrNotFound {
				t.Errorf("expected expired draft to be hidden, got %v", err)
			}
			n, err := store.Sweep(ctx, now)
			if err != nil || n != 1 {
				t.Errorf("expected one swept draft, got %d %v", n, err)
			}
			if _, err := store.Get(ctx, Key{"b2", models.DraftSignup}); err != nil {
				t.Errorf("live draft must survive the sweep, got %v", err)
			}
		})
	}
}
