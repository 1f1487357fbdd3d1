// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/wabbit/wabbit/internal/auth"
)

// DefaultSweepInterval is how often Memory drops expired keys.
const DefaultSweepInterval = time.Minute

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process SessionStore. Expired keys are invisible to Get
// immediately and reclaimed by a background sweeper.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Compile-time interface check.
var _ auth.SessionStore = (*Memory)(nil)

// MemoryOption configures a Memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	sweepInterval time.Duration
	now           func() time.Time
}

// WithSweepInterval sets how often expired keys are reclaimed.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMemory starts a Memory store. Call Close to stop its sweeper.
func NewMemory(opts ...MemoryOption) *Memory {
	o := memoryOptions{sweepInterval: DefaultSweepInterval, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Memory{
		entries: make(map[string]entry),
		now:     o.now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.sweepLoop(o.sweepInterval)
	return m
}

// Set stores value under key. A zero ttl keeps the key until it is deleted.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Get returns the value for key or auth.ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", auth.ErrNotFound
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return "", auth.ErrNotFound
	}
	return e.value, nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

// Len reports the number of stored keys, including expired ones not yet swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops every expired key.
func (m *Memory) Sweep() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
	return nil
}

func (m *Memory) sweepLoop(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
