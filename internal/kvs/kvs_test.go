package kvs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryIncr(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		got, err := m.Incr(ctx, "rate:1.2.3.4:0", time.Minute)
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if got != i {
			t.Errorf("Incr call %d = %d, want %d", i, got, i)
		}
	}
}

func TestMemorySetNXRejectsDuplicate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ok, err := m.SetNX(ctx, "tx:0xabc", "ts", time.Hour)
	if err != nil || !ok {
		t.Fatalf("first SetNX: ok=%v err=%v", ok, err)
	}
	ok, err = m.SetNX(ctx, "tx:0xabc", "ts2", time.Hour)
	if err != nil {
		t.Fatalf("second SetNX: %v", err)
	}
	if ok {
		t.Fatal("second SetNX on same key should have failed")
	}
}

func TestMemorySetNXConcurrentRace(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	const n = 50
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			ok, _ := m.SetNX(ctx, "tx:race", "ts", time.Hour)
			results <- ok
		}()
	}
	wins := 0
	for i := 0; i < n; i++ {
		if <-results {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 winner out of %d racers, got %d", n, wins)
	}
}

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	s := miniredis.RunT(t)
	return NewRedis(redis.NewClient(&redis.Options{Addr: s.Addr()}))
}

func TestRedisSetNXAndIncr(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	ok, err := r.SetNX(ctx, "tx:0xdead", "ts", time.Hour)
	if err != nil || !ok {
		t.Fatalf("first SetNX: ok=%v err=%v", ok, err)
	}
	ok, err = r.SetNX(ctx, "tx:0xdead", "ts", time.Hour)
	if err != nil || ok {
		t.Fatalf("second SetNX should fail: ok=%v err=%v", ok, err)
	}

	got, err := r.Incr(ctx, "rate:5.6.7.8:0", time.Minute)
	if err != nil || got != 1 {
		t.Fatalf("Incr = %d, err=%v", got, err)
	}

	if err := r.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
