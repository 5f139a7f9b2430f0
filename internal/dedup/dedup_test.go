package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	c, err := New("redis://"+mr.Addr(), "")
	if err != nil {
		mr.Close()
		t.Fatalf("New: %v", err)
	}
	return c, mr
}

func TestAlreadySentNewKey(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	ctx := context.Background()
	if c.AlreadySent(ctx, "alert:cooldown:1") {
		t.Error("AlreadySent should return false for new key")
	}
}

func TestRecordAndAlreadySent(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	ctx := context.Background()
	c.Record(ctx, "alert:cooldown:2", 15*time.Minute)

	if !c.AlreadySent(ctx, "alert:cooldown:2") {
		t.Error("AlreadySent should return true after Record")
	}
}

func TestRecordExpiresAfterTTL(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	ctx := context.Background()
	c.Record(ctx, "alert:cooldown:3", 15*time.Minute)

	mr.FastForward(14 * time.Minute)
	if !c.AlreadySent(ctx, "alert:cooldown:3") {
		t.Fatal("key should survive within the cooldown window")
	}

	mr.FastForward(2 * time.Minute)
	if c.AlreadySent(ctx, "alert:cooldown:3") {
		t.Error("key should lapse once the cooldown window passes")
	}
}

func TestClear(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	ctx := context.Background()
	c.Record(ctx, "alert:cooldown:4", 15*time.Minute)

	if !c.AlreadySent(ctx, "alert:cooldown:4") {
		t.Fatal("should be recorded after Record")
	}

	c.Clear(ctx, "alert:cooldown:4")
	if c.AlreadySent(ctx, "alert:cooldown:4") {
		t.Error("AlreadySent should return false after Clear")
	}
}

func TestAlreadySentFailsOpenWhenRedisDown(t *testing.T) {
	c, mr := setupTestCache(t)
	defer c.Close()

	// Stop Redis to simulate an outage. The cache is only the fast path;
	// the store's triggered_at column still enforces the cooldown, so the
	// cache fails open rather than blocking every notification.
	mr.Close()

	ctx := context.Background()
	if c.AlreadySent(ctx, "any:key") {
		t.Error("AlreadySent should return false (fail-open) when Redis is down")
	}
}
