//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/security"
)

func TestDraftRepo(t *testing.T) {
	ctx := context.Background()
	sealer, err := security.NewSealer("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	for name, s := range map[string]*security.Sealer{"plain": nil, "sealed": sealer} {
		t.Run("should round trip a "+name+" draft", func(t *testing.T) {
			// --- Arrange ---
			client := NewMemoryClient()
			repo := NewDraftRepo(client, s, time.Hour)
			bd := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
			d := registration.Draft{
				Step:        registration.StepPhotos,
				PhoneNumber: "+1555",
				BirthDate:   &bd,
				Photos:      []registration.Photo{{URI: "a", OrderIndex: 0}},
			}

			// --- Act ---
			if err := repo.SaveDraft(ctx, 9, d); err != nil {
				t.Fatalf("SaveDraft: %v", err)
			}
			got, err := repo.GetDraft(ctx, 9)

			// --- Assert ---
			if err != nil {
				t.Fatalf("GetDraft: %v", err)
			}
			if got.Step != d.Step || got.PhoneNumber != d.PhoneNumber || !got.BirthDate.Equal(bd) || len(got.Photos) != 1 {
				t.Errorf("unexpected draft %+v", got)
			}
			raw, _ := client.Get(ctx, "reg_draft:9")
			if (s != nil) == (raw[0] == '{') {
				t.Errorf("unexpected stored payload for %s: %q", name, raw)
			}
		})
	}

	t.Run("should report a missing draft", func(t *testing.T) {
		repo := NewDraftRepo(NewMemoryClient(), nil, 0)
		if _, err := repo.GetDraft(ctx, 1); !errors.Is(err, domain.ErrNoDraft) {
			t.Fatalf("expected ErrNoDraft, got %v", err)
		}
	})

	t.Run("should forget a cleared draft", func(t *testing.T) {
		repo := NewDraftRepo(NewMemoryClient(), nil, 0)
		_ = repo.SaveDraft(ctx, 1, registration.NewDraft())
		_ = repo.ClearDraft(ctx, 1)
		if _, err := repo.GetDraft(ctx, 1); !errors.Is(err, domain.ErrNoDraft) {
			t.Fatalf("expected ErrNoDraft, got %v", err)
		}
	})
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocker(NewMemoryClient())
	l.wait = time.Millisecond

	tok, err := l.TryLock(ctx, "reg_lock:1", time.Minute)
	if err != nil {
		t.Fatalf("first TryLock: %v", err)
	}
	if _, err := l.TryLock(ctx, "reg_lock:1", time.Minute); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := l.Unlock(ctx, "reg_lock:1", "someone-else"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := l.TryLock(ctx, "reg_lock:1", time.Minute); !errors.Is(err, domain.ErrBusy) {
		t.Fatal("a foreign token must not release the lock")
	}
	_ = l.Unlock(ctx, "reg_lock:1", tok)
	if _, err := l.TryLock(ctx, "reg_lock:1", time.Minute); err != nil {
		t.Fatalf("expected the lock to be free, got %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(NewMemoryClient())
	key := UserCommandKey(5, "start")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, key, 3, time.Minute); ok {
		t.Fatal("fourth call must be limited")
	}
}

func TestMemoryClient_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	c := NewMemoryClient()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", "v", time.Second)
	now = now.Add(2 * time.Second)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired key, got %v", err)
	}
}
