package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/bastion"
)

func testSet(userID string, perms ...string) *bastion.EffectiveSet {
	return &bastion.EffectiveSet{
		UserID:      userID,
		Permissions: perms,
		ResolvedAt:  time.Now(),
	}
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	// Miss
	if _, ok := c.Get(ctx, "u1"); ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, "u1", testSet("u1", "order:read"))
	got, ok := c.Get(ctx, "u1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got.Permissions) != 1 || got.Permissions[0] != "order:read" {
		t.Fatalf("unexpected cached set: %+v", got)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	c.Set(ctx, "u1", testSet("u1"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, "u1"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "u1", testSet("u1"))
	c.Set(ctx, "u2", testSet("u2"))

	c.InvalidateUser(ctx, "u1")

	if _, ok := c.Get(ctx, "u1"); ok {
		t.Fatal("u1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "u2"); !ok {
		t.Fatal("u2 should survive")
	}
}

func TestMemoryCacheInvalidateAll(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "u1", testSet("u1"))
	c.Set(ctx, "u2", testSet("u2"))

	c.InvalidateAll(ctx)

	if _, ok := c.Get(ctx, "u1"); ok {
		t.Fatal("u1 should be gone")
	}
	if _, ok := c.Get(ctx, "u2"); ok {
		t.Fatal("u2 should be gone")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2), WithTTL(time.Minute))

	c.Set(ctx, "u1", testSet("u1"))
	c.Set(ctx, "u2", testSet("u2"))
	c.Set(ctx, "u3", testSet("u3"))

	hits := 0
	for _, u := range []string{"u1", "u2", "u3"} {
		if _, ok := c.Get(ctx, u); ok {
			hits++
		}
	}
	if hits != 2 {
		t.Fatalf("expected capacity to hold, got %d hits", hits)
	}
}
