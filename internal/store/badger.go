package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"
)

// Entry is one stored preference. Key encodes Scope and Name so a preference
// can be fetched directly; Scope is indexed for Clear and Keys.
type Entry struct {
	Key   string `badgerhold:"key"`
	Scope string `badgerholdIndex:"Scope"`
	Name  string
	Value string
}

// BadgerStore persists preferences in an embedded BadgerHold database.
type BadgerStore struct {
	db     *badgerhold.Store
	logger *zap.Logger
}

// NewBadgerStore opens or creates the database in dir.
func NewBadgerStore(logger *zap.Logger, dir string) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}

	logger.Debug("preference store opened",
		zap.String("op", "store.NewBadgerStore"),
		zap.String("path", dir),
	)

	return &BadgerStore{db: db, logger: logger}, nil
}

// entryKey length-prefixes the portfolio ID so no ID and key pair can encode
// to the same string as another.
func entryKey(portfolioID, key string) string {
	return fmt.Sprintf("%d:%s/%s", len(portfolioID), portfolioID, key)
}

// Get returns the value stored under key.
func (s *BadgerStore) Get(_ context.Context, portfolioID, key string) (string, error) {
	var entry Entry
	if err := s.db.Get(entryKey(portfolioID, key), &entry); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get preference '%s' for portfolio '%s': %w", key, portfolioID, err)
	}
	return entry.Value, nil
}

// Set stores value under key.
func (s *BadgerStore) Set(_ context.Context, portfolioID, key, value string) error {
	id := entryKey(portfolioID, key)
	entry := Entry{Key: id, Scope: portfolioID, Name: key, Value: value}
	if err := s.db.Upsert(id, &entry); err != nil {
		return fmt.Errorf("failed to set preference '%s' for portfolio '%s': %w", key, portfolioID, err)
	}
	s.logger.Debug("preference stored",
		zap.String("op", "store.BadgerStore.Set"),
		zap.String("portfolio", portfolioID),
		zap.String("key", key),
	)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *BadgerStore) Delete(_ context.Context, portfolioID, key string) error {
	err := s.db.Delete(entryKey(portfolioID, key), Entry{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete preference '%s' for portfolio '%s': %w", key, portfolioID, err)
	}
	return nil
}

// Clear removes every key of the portfolio.
func (s *BadgerStore) Clear(_ context.Context, portfolioID string) error {
	if err := s.db.DeleteMatching(Entry{}, badgerhold.Where("Scope").Eq(portfolioID).Index("Scope")); err != nil {
		return fmt.Errorf("failed to clear preferences for portfolio '%s': %w", portfolioID, err)
	}
	s.logger.Debug("preferences cleared",
		zap.String("op", "store.BadgerStore.Clear"),
		zap.String("portfolio", portfolioID),
	)
	return nil
}

// Keys lists the portfolio's keys in sorted order.
func (s *BadgerStore) Keys(_ context.Context, portfolioID string) ([]string, error) {
	var entries []Entry
	if err := s.db.Find(&entries, badgerhold.Where("Scope").Eq(portfolioID).Index("Scope")); err != nil {
		return nil, fmt.Errorf("failed to list preferences for portfolio '%s': %w", portfolioID, err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, entry.Name)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Open returns a BadgerStore at path, or a MemoryStore when path is empty.
func Open(logger *zap.Logger, path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewBadgerStore(logger, path)
}
