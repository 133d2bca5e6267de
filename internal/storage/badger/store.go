// Package badger provides the BadgerHold-backed credential store.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/timshannon/badgerhold/v4"

	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/interfaces"
)

// tokenKey is the fixed key of the single refresh-token record.
const tokenKey = "refresh_token"

// tokenRecord is the persisted shape of the refresh token.
type tokenRecord struct {
	Key   string `badgerhold:"key"`
	Token string
}

// CredentialStore persists the refresh token in an embedded BadgerHold
// database. Badger admits a single process per directory, so a mutex is
// enough to make Swap's read-compare-write atomic for the one record.
type CredentialStore struct {
	db     *badgerhold.Store
	logger *common.Logger
	mu     sync.Mutex
}

// NewCredentialStore opens (creating if needed) the store at path.
func NewCredentialStore(logger *common.Logger, path string) (*CredentialStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold credential store opened")

	return &CredentialStore{
		db:     db,
		logger: logger,
	}, nil
}

// Read returns the stored refresh token.
func (s *CredentialStore) Read(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var record tokenRecord
	if err := s.db.Get(tokenKey, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", interfaces.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	return record.Token, nil
}

// Swap replaces expectedOld with next, failing with ErrTokenConflict when
// the stored value has drifted.
func (s *CredentialStore) Swap(_ context.Context, expectedOld, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var record tokenRecord
	if err := s.db.Get(tokenKey, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return interfaces.ErrTokenNotFound
		}
		return fmt.Errorf("failed to read refresh token: %w", err)
	}

	if record.Token != expectedOld {
		return interfaces.ErrTokenConflict
	}

	record.Token = next
	if err := s.db.Update(tokenKey, &record); err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}

	s.logger.Debug().Msg("Refresh token swapped")
	return nil
}

// Seed unconditionally writes the token, creating the record if absent.
func (s *CredentialStore) Seed(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := tokenRecord{Key: tokenKey, Token: token}
	if err := s.db.Upsert(tokenKey, &record); err != nil {
		return fmt.Errorf("failed to seed refresh token: %w", err)
	}

	s.logger.Info().Msg("Refresh token seeded")
	return nil
}

// Close closes the underlying Badger database.
func (s *CredentialStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure CredentialStore implements the contract
var _ interfaces.CredentialStore = (*CredentialStore)(nil)
