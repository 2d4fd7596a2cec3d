// Package store persists small per-portfolio preferences such as financing
// defaults, listing filters and unsaved row edits. Every operation is scoped
// by a portfolio identity string.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("preference not found")

// Store is a key-value store scoped by portfolio.
type Store interface {
	Get(ctx context.Context, portfolioID, key string) (string, error)
	Set(ctx context.Context, portfolioID, key, value string) error
	Delete(ctx context.Context, portfolioID, key string) error
	Clear(ctx context.Context, portfolioID string) error
	Keys(ctx context.Context, portfolioID string) ([]string, error)
	Close() error
}

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(_ context.Context, portfolioID, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.scopes[portfolioID][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(_ context.Context, portfolioID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	scope, ok := m.scopes[portfolioID]
	if !ok {
		scope = make(map[string]string)
		m.scopes[portfolioID] = scope
	}
	scope[key] = value
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryStore) Delete(_ context.Context, portfolioID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes[portfolioID], key)
	return nil
}

// Clear removes every key of the portfolio.
func (m *MemoryStore) Clear(_ context.Context, portfolioID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, portfolioID)
	return nil
}

// Keys lists the portfolio's keys in sorted order.
func (m *MemoryStore) Keys(_ context.Context, portfolioID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.scopes[portfolioID]))
	for key := range m.scopes[portfolioID] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
