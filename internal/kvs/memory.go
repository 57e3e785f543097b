package kvs

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process KVS backed by a mutex-guarded map. It is the
// {InMemoryFake} half of the {Real, InMemoryFake} pattern: used directly in
// tests, and usable in production for a single gateway instance with no
// shared replay state across processes.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	value     string
	count     int64
	expiresAt time.Time
}

// NewMemory returns an empty Memory store with a background sweep goroutine
// that evicts expired entries every 30s so the map does not grow unbounded
// under sustained traffic.
func NewMemory() *Memory {
	m := &Memory{entries: make(map[string]memEntry)}
	go m.sweepLoop()
	return m
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		m.sweep()
	}
}

func (m *Memory) sweep() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	now := time.Now()
	if !ok || (!e.expiresAt.IsZero() && now.After(e.expiresAt)) {
		e = memEntry{count: 0, expiresAt: now.Add(ttl)}
	}
	e.count++
	m.entries[key] = e
	return e.count, nil
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if e, ok := m.entries[key]; ok && (e.expiresAt.IsZero() || now.Before(e.expiresAt)) {
		return false, nil
	}
	m.entries[key] = memEntry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
