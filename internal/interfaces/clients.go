package interfaces

import (
	"context"

	"github.com/dmcnabb/questfolio/internal/models"
)

// QuestradeClient provides access to the Questrade API.
//
// ExchangeToken talks to the login host and needs no session; every other
// call is issued against the API server named in the SessionToken, which the
// caller passes explicitly; there is no ambient token state in the client.
type QuestradeClient interface {
	// ExchangeToken trades a single-use refresh token for a session token
	// and the next refresh token.
	ExchangeToken(ctx context.Context, refreshToken string) (*models.TokenExchange, error)

	// ListAccounts retrieves all accounts visible to the session.
	ListAccounts(ctx context.Context, session *models.SessionToken) ([]models.Account, error)

	// GetBalances retrieves per-currency and combined balances for an account.
	GetBalances(ctx context.Context, session *models.SessionToken, accountID string) (*models.Balances, error)

	// ListPositions retrieves all positions for an account.
	ListPositions(ctx context.Context, session *models.SessionToken, accountID string) ([]models.Position, error)

	// GetSymbol retrieves instrument detail for a symbol ID.
	GetSymbol(ctx context.Context, session *models.SessionToken, symbolID int) (*models.Symbol, error)
}

// GeminiClient provides access to the Gemini API for summary commentary.
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
