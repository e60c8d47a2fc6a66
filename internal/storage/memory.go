package storage

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process KV. Reads and writes can be made to fail to
// exercise error paths.
type Memory struct {
	mu       sync.Mutex
	slots    map[string][]byte
	stamps   map[string]time.Time
	last     time.Time
	readErr  error
	writeErr error
	writes   int
}

var (
	_ KV      = (*Memory)(nil)
	_ Stamper = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{slots: map[string][]byte{}, stamps: map[string]time.Time{}}
}

// Seed stores a value directly, bypassing any injected failure.
func (m *Memory) Seed(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), value...)
	m.stamp(key)
}

// FailReads makes every subsequent Get return err; nil restores normal reads.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailWrites makes every subsequent Set return err; nil restores normal writes.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Writes returns the number of successful Set calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	v, ok := m.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.slots[key] = append([]byte(nil), value...)
	m.stamp(key)
	m.writes++
	return nil
}

// UpdatedAt reports when a slot was last written. Stamps strictly increase
// so back-to-back writes are always told apart.
func (m *Memory) UpdatedAt(_ context.Context, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return time.Time{}, m.readErr
	}
	ts, ok := m.stamps[key]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return ts, nil
}

func (m *Memory) stamp(key string) {
	now := time.Now()
	if !now.After(m.last) {
		now = m.last.Add(time.Nanosecond)
	}
	m.last = now
	m.stamps[key] = now
}
