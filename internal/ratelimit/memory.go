// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type window struct {
	count int
	ends  time.Time
}

// Memory is a process-local Limiter. Expired keys are swept in the
// background until Close is called.
type Memory struct {
	mu      sync.Mutex
	entries map[string]window
	window  time.Duration
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewMemory starts a Memory limiter with the given window length.
func NewMemory(length time.Duration) *Memory {
	if length <= 0 {
		length = DefaultWindow
	}
	m := &Memory{
		entries: make(map[string]window),
		window:  length,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Failures returns the live count for key.
func (m *Memory) Failures(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.entries[key]
	if !ok || !m.now().Before(w.ends) {
		return 0, nil
	}
	return w.count, nil
}

// RecordFailure increments key's count, opening a new window if needed.
func (m *Memory) RecordFailure(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.entries[key]
	if !ok || !now.Before(w.ends) {
		w = window{ends: now.Add(m.window)}
	}
	w.count++
	m.entries[key] = w
	return w.count, nil
}

// Reset forgets key.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close stops the sweeper. It is safe to call more than once.
func (m *Memory) Close() error {
	m.once.Do(func() {
		close(m.stop)
		<-m.done
	})
	return nil
}

func (m *Memory) sweepLoop() {
	defer close(m.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, w := range m.entries {
		if !now.Before(w.ends) {
			delete(m.entries, key)
		}
	}
}

var _ Limiter = (*Memory)(nil)
