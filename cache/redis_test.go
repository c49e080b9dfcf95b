package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis at %s unavailable: %v", addr, err)
	}
	return NewRedis(rdb, fmt.Sprintf("qrtrack-test:%d:", time.Now().UnixNano()))
}

func TestRedisStore(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		op        func() (bool, error)
		wantOK    bool
		key       string
		wantValue string
		wantFound bool
	}{
		{
			name:      "first SetNX takes the lock",
			op:        func() (bool, error) { return r.SetNX(ctx, "scanlock:1:GATE-A", "1", time.Minute) },
			wantOK:    true,
			key:       "scanlock:1:GATE-A",
			wantValue: "1",
			wantFound: true,
		},
		{
			name:      "second SetNX is refused",
			op:        func() (bool, error) { return r.SetNX(ctx, "scanlock:1:GATE-A", "2", time.Minute) },
			wantOK:    false,
			key:       "scanlock:1:GATE-A",
			wantValue: "1",
			wantFound: true,
		},
		{
			name:      "other employee gets its own lock",
			op:        func() (bool, error) { return r.SetNX(ctx, "scanlock:2:GATE-A", "1", time.Minute) },
			wantOK:    true,
			key:       "scanlock:2:GATE-A",
			wantValue: "1",
			wantFound: true,
		},
		{
			name:      "Delete releases the lock",
			op:        func() (bool, error) { return true, r.Delete(ctx, "scanlock:1:GATE-A") },
			wantOK:    true,
			key:       "scanlock:1:GATE-A",
			wantFound: false,
		},
		{
			name:      "Set without ttl",
			op:        func() (bool, error) { return true, r.Set(ctx, "reportfilter:7", `{"tab":"draft"}`, 0) },
			wantOK:    true,
			key:       "reportfilter:7",
			wantValue: `{"tab":"draft"}`,
			wantFound: true,
		},
	}
	t.Cleanup(func() {
		for _, k := range []string{"scanlock:1:GATE-A", "scanlock:2:GATE-A", "reportfilter:7"} {
			r.Delete(context.Background(), k)
		}
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.op()
			if err != nil || ok != tt.wantOK {
				t.Fatalf("op = %v, %v, want %v", ok, err, tt.wantOK)
			}
			value, found, err := r.Get(ctx, tt.key)
			if err != nil || found != tt.wantFound || value != tt.wantValue {
				t.Fatalf("Get(%q) = %q, %v, %v, want %q, %v", tt.key, value, found, err, tt.wantValue, tt.wantFound)
			}
		})
	}
}
