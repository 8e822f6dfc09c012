// File path: internal/dataset/memory_test.go
package dataset

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jvaldebenito/cronoplan/internal/schedule"
)

func testDataset(key string) *Dataset {
	return &Dataset{
		Key:        key,
		Filename:   "proyecto.xlsx",
		UploadedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Table:      &schedule.Table{},
	}
}

func TestMemoryStorePutGetDelete(t *testing.T) {
	store := NewMemoryStore(0, 0)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: %v, want ErrNotFound", err)
	}

	ds := testDataset(NewKey())
	if err := store.Put(ctx, ds); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, ds.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Filename != "proyecto.xlsx" {
		t.Fatalf("unexpected dataset %+v", got)
	}

	if err := store.Delete(ctx, ds.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, ds.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, ds.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreReplaceWholesale(t *testing.T) {
	store := NewMemoryStore(0, 0)
	ctx := context.Background()

	first := testDataset("k1")
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	second := testDataset("k1")
	second.Filename = "proyecto_v2.xlsx"
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("put second: %v", err)
	}
	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Filename != "proyecto_v2.xlsx" {
		t.Fatalf("expected replacement, got %+v", got)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(time.Hour, 0)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	if err := store.Put(ctx, testDataset("k1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	current = current.Add(30 * time.Minute)
	if _, err := store.Get(ctx, "k1"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}
	current = current.Add(45 * time.Minute)
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after expiry: %v, want ErrNotFound", err)
	}
	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys after expiry = %v, want none", keys)
	}
}

func TestMemoryStoreCapacityEviction(t *testing.T) {
	store := NewMemoryStore(time.Hour, 2)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		current = current.Add(time.Minute)
		if err := store.Put(ctx, testDataset(fmt.Sprintf("k%d", i))); err != nil {
			t.Fatalf("put k%d: %v", i, err)
		}
	}
	if _, err := store.Get(ctx, "k0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("oldest entry should be evicted, got %v", err)
	}
	for _, key := range []string{"k1", "k2"} {
		if _, err := store.Get(ctx, key); err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
	}
}
