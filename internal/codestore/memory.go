// Package codestore provides stores for outstanding one-time verification
// codes, keyed by normalized email address with a fixed time-to-live.
package codestore

import (
	"context"
	"sync"
	"time"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
)

var _ model.CodeStore = (*Memory)(nil)

// Memory is an in-process code store. Mutations are serialized by a mutex;
// lookups of live entries run concurrently. The TTL is fixed at
// construction. Expiry checks compare against an injected clock.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]model.PendingCode
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates a Memory store with the given code TTL.
func NewMemory(ttl time.Duration, logger *logger.Logger, opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]model.PendingCode),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue stores a code for the email with the current time as its issuance
// timestamp, overwriting any prior entry and implicitly invalidating it.
func (m *Memory) Issue(_ context.Context, email, code string) error {
	key := model.NormalizeEmail(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = model.PendingCode{
		Email:    key,
		Code:     code,
		IssuedAt: m.now(),
	}

	return nil
}

// Lookup returns the pending code for the email if present and not expired.
// An expired entry is deleted as a side effect. Lookup never consumes a
// live entry.
func (m *Memory) Lookup(_ context.Context, email string) (model.PendingCode, error) {
	key := model.NormalizeEmail(email)

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return model.PendingCode{}, model.ErrNotFound
	}

	if m.expired(entry) {
		m.mu.Lock()
		// Re-check under the write lock: a fresh code may have been issued
		// for the same email in between.
		if current, ok := m.entries[key]; ok && m.expired(current) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return model.PendingCode{}, model.ErrNotFound
	}

	return entry, nil
}

// Consume deletes any stored code for the email. Idempotent.
func (m *Memory) Consume(_ context.Context, email string) error {
	key := model.NormalizeEmail(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)

	return nil
}

// Sweep deletes all expired entries. Lookup already expires lazily, so
// sweeping only bounds memory growth.
func (m *Memory) Sweep(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if m.expired(entry) {
			delete(m.entries, key)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Debug("swept expired verification codes", "removed", removed)
	}

	return nil
}

// RunSweeper sweeps periodically until the context is cancelled.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = m.Sweep(ctx)
		}
	}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

func (m *Memory) expired(entry model.PendingCode) bool {
	return m.now().After(entry.IssuedAt.Add(m.ttl))
}
