// Package auth manages the rotating-credential lifecycle for Questrade.
//
// Questrade refresh tokens are single-use: the exchange burns the token sent
// and returns the next one. Losing the committed next token between the
// exchange and the store write permanently strands the account, so the
// rotator commits the swap before the session is handed to any caller.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/interfaces"
	"github.com/dmcnabb/questfolio/internal/models"
)

// State is the rotator lifecycle phase.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReading       State = "reading"
	StateExchanging    State = "exchanging"
	StateCommitting    State = "committing"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// CredentialError reports a missing or conflicting local token record.
type CredentialError struct {
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("credential error: %s", e.Reason)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// Rotation is the outcome of one rotation attempt. Session and PersistErr
// are independent: a commit conflict leaves PersistErr set while the session
// obtained from the exchange stays usable for the current run (the next run
// will need manual re-seeding).
type Rotation struct {
	Session    *models.SessionToken
	PersistErr error
}

// Rotator exchanges the stored refresh token for a fresh session and commits
// the next refresh token, in that order. It is the single owner of the live
// SessionToken for a run; callers receive the token by value through
// Session() and never mutate rotator state.
type Rotator struct {
	store  interfaces.CredentialStore
	client interfaces.QuestradeClient
	logger *common.Logger

	mu      sync.Mutex
	state   State
	session *models.SessionToken
}

// NewRotator creates a rotator over the given credential store and client.
func NewRotator(store interfaces.CredentialStore, client interfaces.QuestradeClient, logger *common.Logger) *Rotator {
	return &Rotator{
		store:  store,
		client: client,
		logger: logger,
		state:  StateUninitialized,
	}
}

// Rotate runs the full lifecycle: read the stored token, exchange it, commit
// the replacement, and hold the session. It must complete before any data
// fetch is issued. A commit conflict is reported via Rotation.PersistErr
// rather than failing the rotation, since the exchange already succeeded.
func (r *Rotator) Rotate(ctx context.Context) (*Rotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = StateReading
	oldToken, err := r.store.Read(ctx)
	if err != nil {
		r.state = StateFailed
		if errors.Is(err, interfaces.ErrTokenNotFound) {
			return nil, &CredentialError{Reason: "no refresh token seeded", Err: err}
		}
		return nil, &CredentialError{Reason: "failed to read refresh token", Err: err}
	}

	r.state = StateExchanging
	exchange, err := r.client.ExchangeToken(ctx, oldToken)
	if err != nil {
		// The exchange did not consume the token on a rejected or failed
		// request, so the stored record is left untouched.
		r.state = StateFailed
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	session := &models.SessionToken{
		AccessToken: exchange.AccessToken,
		APIServer:   exchange.APIServer,
		ExpiresAt:   time.Now().Add(time.Duration(exchange.ExpiresIn) * time.Second),
	}

	// Commit before anything uses the session: the old token is already
	// burned server-side and exchange.RefreshToken is the only way back in.
	r.state = StateCommitting
	if err := r.store.Swap(ctx, oldToken, exchange.RefreshToken); err != nil {
		r.state = StateFailed
		r.session = session

		persistErr := &CredentialError{Reason: "failed to commit rotated refresh token", Err: err}
		r.logger.Error().Err(err).Msg("Refresh token commit failed; session remains usable for this run only")

		return &Rotation{Session: session, PersistErr: persistErr}, nil
	}

	r.state = StateReady
	r.session = session

	r.logger.Info().
		Time("expires_at", session.ExpiresAt).
		Msg("Refresh token rotated")

	return &Rotation{Session: session}, nil
}

// Session returns the live session token obtained by Rotate. The token is
// not refreshed mid-run; a run outliving it fails on the next outbound call.
func (r *Rotator) Session() (*models.SessionToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil, &CredentialError{Reason: "no session: rotation has not completed"}
	}
	return r.session, nil
}

// State returns the current lifecycle phase.
func (r *Rotator) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
