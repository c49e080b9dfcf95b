package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, found, err := m.Get(ctx, "draft:1"); err != nil || found {
		t.Fatalf("Get() on empty store = found %v, err %v", found, err)
	}
	if err := m.Set(ctx, "draft:1", `{"report_id":4}`, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, found, err := m.Get(ctx, "draft:1")
	if err != nil || !found || value != `{"report_id":4}` {
		t.Fatalf("Get() = %q, %v, %v", value, found, err)
	}
	if err := m.Delete(ctx, "draft:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := m.Get(ctx, "draft:1"); found {
		t.Fatalf("key still present after Delete()")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return now })

	ok, err := m.SetNX(ctx, "scanlock:1:GATE-A", "1", 10*time.Second)
	if err != nil || !ok {
		t.Fatalf("first SetNX() = %v, %v", ok, err)
	}
	ok, _ = m.SetNX(ctx, "scanlock:1:GATE-A", "1", 10*time.Second)
	if ok {
		t.Fatalf("SetNX() inside window should not acquire")
	}

	now = now.Add(10 * time.Second)
	ok, _ = m.SetNX(ctx, "scanlock:1:GATE-A", "1", 10*time.Second)
	if !ok {
		t.Fatalf("SetNX() after expiry should acquire")
	}

	if err := m.Set(ctx, "filter:1", "x", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	now = now.Add(time.Minute)
	if _, found, _ := m.Get(ctx, "filter:1"); found {
		t.Fatalf("expired key returned by Get()")
	}
}

func TestMemoryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMemory().Set(ctx, "k", "v", 0); err == nil {
		t.Fatalf("Set() with cancelled context should fail")
	}
}
