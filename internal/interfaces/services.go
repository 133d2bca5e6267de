package interfaces

import (
	"context"

	"github.com/dmcnabb/questfolio/internal/models"
)

// TrackerService runs the fetch-and-aggregate pipeline over all accounts.
type TrackerService interface {
	// Run fetches balances, positions, and symbol detail for every account
	// and folds positions into the portfolio summary. A failed fetch skips
	// that account and is recorded in the report's Failures; the run only
	// fails outright when the account listing itself fails.
	Run(ctx context.Context, session *models.SessionToken) (*models.PortfolioReport, error)
}
