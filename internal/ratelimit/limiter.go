// Package ratelimit implements the per-IP sliding/fixed window limiter that
// sits in front of the payment challenge. It fails open on KVS errors,
// trading strictness for availability, and records that decision on a
// counter so operators can see degraded protection.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/justin-graham/Tachi-sub009/internal/kvs"
	"github.com/justin-graham/Tachi-sub009/internal/metrics"
)

const (
	window = 60 * time.Second
	keyTTL = 120 * time.Second
)

// Result is the outcome of an Allow call.
type Result struct {
	OK        bool
	Remaining int
	ResetAt   time.Time
}

// Limiter enforces a requests-per-IP-per-window budget using a shared KVS
// counter. The limit is configurable; the window width is fixed at 60s per
// the gateway's contract.
type Limiter struct {
	store   kvs.KVS
	limit   int
	metrics *metrics.Metrics
}

// New builds a Limiter with the given per-window request budget.
func New(store kvs.KVS, limit int, m *metrics.Metrics) *Limiter {
	return &Limiter{store: store, limit: limit, metrics: m}
}

// Allow increments ip's counter for the current 60s window and reports
// whether the request is within budget. On KVS failure it fails open: the
// request is allowed, a warning is logged, and a fail-open counter is
// incremented.
func (l *Limiter) Allow(ctx context.Context, ip string) Result {
	now := time.Now()
	epoch := now.Unix() / int64(window/time.Second)
	key := fmt.Sprintf("rate:%s:%d", ip, epoch)
	resetAt := time.Unix((epoch+1)*int64(window/time.Second), 0)

	count, err := l.store.Incr(ctx, key, keyTTL)
	if err != nil {
		slog.Warn("rate limiter: KVS failure, failing open", "ip", ip, "err", err)
		if l.metrics != nil {
			l.metrics.RateLimitFailOpen.Inc()
		}
		return Result{OK: true, Remaining: l.limit, ResetAt: resetAt}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if l.metrics != nil {
		if int(count) > l.limit {
			l.metrics.RateLimitDenied.Inc()
		} else {
			l.metrics.RateLimitAllowed.Inc()
		}
	}
	return Result{
		OK:        int(count) <= l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
