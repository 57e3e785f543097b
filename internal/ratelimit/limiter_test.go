package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justin-graham/Tachi-sub009/internal/kvs"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/justin-graham/Tachi-sub009/internal/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func TestAllowUnderLimit(t *testing.T) {
	l := New(kvs.NewMemory(), 3, newTestMetrics())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		r := l.Allow(ctx, "1.2.3.4")
		if !r.OK {
			t.Fatalf("request %d: expected allowed", i)
		}
	}
}

func TestAllowOverLimitRejects(t *testing.T) {
	l := New(kvs.NewMemory(), 2, newTestMetrics())
	ctx := context.Background()

	l.Allow(ctx, "1.2.3.4")
	l.Allow(ctx, "1.2.3.4")
	r := l.Allow(ctx, "1.2.3.4")
	if r.OK {
		t.Fatal("third request should have been rejected")
	}
	if r.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining)
	}
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("kvs unreachable")
}
func (failingStore) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("kvs unreachable")
}
func (failingStore) Exists(context.Context, string) (bool, error) {
	return false, errors.New("kvs unreachable")
}
func (failingStore) Ping(context.Context) error { return errors.New("kvs unreachable") }

func TestAllowFailsOpenOnKVSError(t *testing.T) {
	l := New(failingStore{}, 1, newTestMetrics())
	r := l.Allow(context.Background(), "1.2.3.4")
	if !r.OK {
		t.Fatal("expected fail-open to allow the request")
	}
}
