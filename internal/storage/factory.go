// Package storage selects the credential-store backend from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/interfaces"
	"github.com/dmcnabb/questfolio/internal/storage/badger"
	"github.com/dmcnabb/questfolio/internal/storage/surreal"
)

// Backend type constants.
const (
	BackendBadger  = "badger"
	BackendSurreal = "surreal"
)

// NewCredentialStore creates a credential store based on the configuration.
// Supported backends: "badger" (embedded, default) and "surreal" (document).
// Either satisfies the same contract; the choice is a deployment decision.
func NewCredentialStore(ctx context.Context, logger *common.Logger, cfg common.StorageConfig) (interfaces.CredentialStore, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendBadger
	}

	switch backend {
	case BackendBadger:
		return badger.NewCredentialStore(logger, cfg.Badger.Path)

	case BackendSurreal:
		return surreal.NewCredentialStore(ctx, logger, cfg.Surreal)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: badger, surreal)", backend)
	}
}
