// Package surreal provides the SurrealDB-backed credential store.
package surreal

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/interfaces"
)

// recordID is the fixed ID of the single refresh-token record.
const recordID = "refresh_token"

type credentialRecord struct {
	Token string `json:"token"`
}

// CredentialStore persists the refresh token as a single document in
// SurrealDB. The swap runs as one UPDATE ... WHERE token = $old statement,
// so the compare and the write are atomic on the server.
type CredentialStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewCredentialStore connects to SurrealDB and prepares the credential table.
func NewCredentialStore(ctx context.Context, logger *common.Logger, cfg common.SurrealConfig) (*CredentialStore, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// SurrealDB v3 errors on querying a non-existent table.
	if _, err := surrealdb.Query[any](ctx, db, "DEFINE TABLE IF NOT EXISTS credential SCHEMALESS", nil); err != nil {
		return nil, fmt.Errorf("failed to define credential table: %w", err)
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB credential store initialized")

	return &CredentialStore{db: db, logger: logger}, nil
}

// NewCredentialStoreWithDB wraps an existing connection; used by tests.
func NewCredentialStoreWithDB(db *surrealdb.DB, logger *common.Logger) *CredentialStore {
	return &CredentialStore{db: db, logger: logger}
}

// Read returns the stored refresh token.
func (s *CredentialStore) Read(ctx context.Context) (string, error) {
	record, err := surrealdb.Select[credentialRecord](ctx, s.db, surrealmodels.NewRecordID("credential", recordID))
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if record == nil || record.Token == "" {
		return "", interfaces.ErrTokenNotFound
	}
	return record.Token, nil
}

// Swap replaces expectedOld with next in a single conditional UPDATE.
func (s *CredentialStore) Swap(ctx context.Context, expectedOld, next string) error {
	sql := "UPDATE type::record('credential', $id) SET token = $next WHERE token = $old RETURN AFTER"
	vars := map[string]any{"id": recordID, "old": expectedOld, "next": next}

	results, err := surrealdb.Query[[]credentialRecord](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to swap refresh token: %w", err)
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		s.logger.Debug().Msg("Refresh token swapped")
		return nil
	}

	// Nothing matched: distinguish a missing record from a drifted one.
	if _, err := s.Read(ctx); err != nil {
		return err
	}
	return interfaces.ErrTokenConflict
}

// Seed unconditionally writes the token, creating the record if absent.
func (s *CredentialStore) Seed(ctx context.Context, token string) error {
	sql := "UPSERT type::record('credential', $id) CONTENT $record"
	vars := map[string]any{"id": recordID, "record": credentialRecord{Token: token}}

	if _, err := surrealdb.Query[[]credentialRecord](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to seed refresh token: %w", err)
	}

	s.logger.Info().Msg("Refresh token seeded")
	return nil
}

// Close closes the SurrealDB connection.
func (s *CredentialStore) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ensure CredentialStore implements the contract
var _ interfaces.CredentialStore = (*CredentialStore)(nil)
