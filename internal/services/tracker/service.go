// Package tracker orchestrates a full portfolio run: account listing,
// concurrent per-account fetches, symbol dedup, and aggregation.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmcnabb/questfolio/internal/allocation"
	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/interfaces"
	"github.com/dmcnabb/questfolio/internal/models"
)

// DefaultWorkers bounds concurrent per-account fetches.
const DefaultWorkers = 4

// Service implements TrackerService.
type Service struct {
	client  interfaces.QuestradeClient
	policy  *allocation.Policy
	workers int
	logger  *common.Logger
}

// NewService creates a tracker service. workers <= 0 selects DefaultWorkers.
func NewService(client interfaces.QuestradeClient, policy *allocation.Policy, workers int, logger *common.Logger) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{
		client:  client,
		policy:  policy,
		workers: workers,
		logger:  logger,
	}
}

// symbolCache deduplicates symbol lookups across accounts: at most one
// GetSymbol call per symbol ID regardless of how many workers ask.
type symbolCache struct {
	mu      sync.Mutex
	entries map[int]*symbolEntry
}

type symbolEntry struct {
	once sync.Once
	sym  *models.Symbol
	err  error
}

func newSymbolCache() *symbolCache {
	return &symbolCache{entries: make(map[int]*symbolEntry)}
}

func (c *symbolCache) lookup(ctx context.Context, client interfaces.QuestradeClient, session *models.SessionToken, symbolID int) (*models.Symbol, error) {
	c.mu.Lock()
	entry, ok := c.entries[symbolID]
	if !ok {
		entry = &symbolEntry{}
		c.entries[symbolID] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.sym, entry.err = client.GetSymbol(ctx, session, symbolID)
	})
	return entry.sym, entry.err
}

// resolved returns every successfully fetched symbol keyed by ID.
func (c *symbolCache) resolved() map[int]models.Symbol {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[int]models.Symbol, len(c.entries))
	for id, entry := range c.entries {
		if entry.err == nil && entry.sym != nil {
			out[id] = *entry.sym
		}
	}
	return out
}

// Run fetches and aggregates all accounts. The session is shared read-only
// across workers; rotation must already have completed.
func (s *Service) Run(ctx context.Context, session *models.SessionToken) (*models.PortfolioReport, error) {
	runID := uuid.NewString()
	logger := s.logger.WithRunID(runID)

	started := time.Now()
	logger.Info().Msg("Portfolio run started")

	accounts, err := s.client.ListAccounts(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	cache := newSymbolCache()
	results := make([]*models.AccountData, len(accounts))
	failures := make([]models.AccountFailure, 0)

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, account := range accounts {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int, account models.Account) {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := s.fetchAccount(ctx, session, account, cache)
			if err != nil {
				logger.Warn().Err(err).Str("account", account.ID).Msg("Account fetch failed; skipping")
				mu.Lock()
				failures = append(failures, models.AccountFailure{
					AccountID: account.ID,
					Err:       err,
					Reason:    err.Error(),
				})
				mu.Unlock()
				return
			}

			mu.Lock()
			results[i] = data
			mu.Unlock()
		}(i, account)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("portfolio run cancelled: %w", err)
	}

	// Accumulate account by account, in listing order, after all fetches
	// settled. Each position lands in exactly one symbol and one class bucket.
	aggregator := allocation.NewAggregator(s.policy)
	fetched := make([]models.AccountData, 0, len(accounts))
	for _, data := range results {
		if data == nil {
			continue
		}
		aggregator.AccumulateAll(data.Positions)
		fetched = append(fetched, *data)
	}

	summary, err := aggregator.Finalize()
	if err != nil {
		// An empty portfolio is a rendering case, not a run failure.
		logger.Warn().Msg("Portfolio has no market value")
	}

	logger.Info().
		Int("accounts", len(fetched)).
		Int("skipped", len(failures)).
		Float64("market_value", summary.TotalMarketValue).
		Dur("elapsed", time.Since(started)).
		Msg("Portfolio run complete")

	return &models.PortfolioReport{
		RunID:     runID,
		Accounts:  fetched,
		Symbols:   cache.resolved(),
		Summary:   summary,
		Failures:  failures,
		FetchedAt: started,
	}, nil
}

// fetchAccount retrieves balances, positions, and symbol detail for one
// account. Any failure fails the whole account; the caller skips it.
func (s *Service) fetchAccount(ctx context.Context, session *models.SessionToken, account models.Account, cache *symbolCache) (*models.AccountData, error) {
	balances, err := s.client.GetBalances(ctx, session, account.ID)
	if err != nil {
		return nil, fmt.Errorf("balances for account %s: %w", account.ID, err)
	}

	positions, err := s.client.ListPositions(ctx, session, account.ID)
	if err != nil {
		return nil, fmt.Errorf("positions for account %s: %w", account.ID, err)
	}

	for _, position := range positions {
		if _, err := cache.lookup(ctx, s.client, session, position.SymbolID); err != nil {
			return nil, fmt.Errorf("symbol %d for account %s: %w", position.SymbolID, account.ID, err)
		}
	}

	return &models.AccountData{
		Account:   account,
		Balances:  *balances,
		Positions: positions,
	}, nil
}

// Ensure Service implements TrackerService
var _ interfaces.TrackerService = (*Service)(nil)
