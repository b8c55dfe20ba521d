package tokenstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRefreshPutReplacesSession(t *testing.T) {
	_, rdb := testClient(t)
	store := NewRefreshStore(rdb, "")
	ctx := context.Background()

	if err := store.Put(ctx, "u1", "digest-one", time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "u1", "digest-two", time.Hour); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "digest-two" {
		t.Fatalf("stored digest %q, want digest-two", got)
	}

	// The replaced session must not rotate.
	if err := store.Rotate(ctx, "u1", "digest-one"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("Rotate with replaced digest = %v, want ErrMismatch", err)
	}
}

func TestRefreshRotateOnce(t *testing.T) {
	_, rdb := testClient(t)
	store := NewRefreshStore(rdb, "")
	ctx := context.Background()

	if err := store.Put(ctx, "u1", "digest-one", time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := store.Rotate(ctx, "u1", "digest-one"); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if err := store.Rotate(ctx, "u1", "digest-one"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("replayed Rotate = %v, want ErrNotFound", err)
	}
}

func TestRefreshRotateExpired(t *testing.T) {
	mr, rdb := testClient(t)
	store := NewRefreshStore(rdb, "")
	ctx := context.Background()

	if err := store.Put(ctx, "u1", "digest-one", time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := store.Rotate(ctx, "u1", "digest-one"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Rotate after expiry = %v, want ErrNotFound", err)
	}
}

func TestRefreshDeleteIdempotent(t *testing.T) {
	_, rdb := testClient(t)
	store := NewRefreshStore(rdb, "")
	ctx := context.Background()

	if err := store.Put(ctx, "u1", "digest-one", time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete of absent session failed: %v", err)
	}
}

func TestRefreshRotateRace(t *testing.T) {
	_, rdb := testClient(t)
	store := NewRefreshStore(rdb, "")
	ctx := context.Background()

	if err := store.Put(ctx, "u1", "digest-one", time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	const racers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Rotate(ctx, "u1", "digest-one"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("%d rotations succeeded, want exactly 1", wins)
	}
}
