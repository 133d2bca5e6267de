package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcnabb/questfolio/internal/allocation"
	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/models"
)

// fakeQuestrade serves canned accounts, balances, positions, and symbols,
// counting calls per endpoint.
type fakeQuestrade struct {
	mu sync.Mutex

	accounts    []models.Account
	accountsErr error
	balances    map[string]*models.Balances
	balancesErr map[string]error
	positions   map[string][]models.Position
	symbols     map[int]*models.Symbol

	symbolCalls map[int]int
}

func newFakeQuestrade() *fakeQuestrade {
	return &fakeQuestrade{
		balances:    make(map[string]*models.Balances),
		balancesErr: make(map[string]error),
		positions:   make(map[string][]models.Position),
		symbols:     make(map[int]*models.Symbol),
		symbolCalls: make(map[int]int),
	}
}

func (f *fakeQuestrade) ExchangeToken(ctx context.Context, refreshToken string) (*models.TokenExchange, error) {
	return nil, errors.New("not used")
}

func (f *fakeQuestrade) ListAccounts(ctx context.Context, session *models.SessionToken) ([]models.Account, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeQuestrade) GetBalances(ctx context.Context, session *models.SessionToken, accountID string) (*models.Balances, error) {
	if err := f.balancesErr[accountID]; err != nil {
		return nil, err
	}
	if b, ok := f.balances[accountID]; ok {
		return b, nil
	}
	return &models.Balances{}, nil
}

func (f *fakeQuestrade) ListPositions(ctx context.Context, session *models.SessionToken, accountID string) ([]models.Position, error) {
	return f.positions[accountID], nil
}

func (f *fakeQuestrade) GetSymbol(ctx context.Context, session *models.SessionToken, symbolID int) (*models.Symbol, error) {
	f.mu.Lock()
	f.symbolCalls[symbolID]++
	f.mu.Unlock()

	if sym, ok := f.symbols[symbolID]; ok {
		return sym, nil
	}
	return nil, errors.New("symbol not found")
}

func testPolicy() *allocation.Policy {
	return allocation.NewPolicy(common.AllocationConfig{
		Classes: map[string]string{
			"XEQT.TO": "stocks",
			"ZAG.TO":  "bonds",
		},
		Targets: map[string]float64{
			"stocks": 50,
			"bonds":  50,
			"cash":   0,
		},
		WarningMargin: 2.5,
		ErrorMargin:   5.0,
	})
}

func testSession() *models.SessionToken {
	return &models.SessionToken{
		AccessToken: "access",
		APIServer:   "https://api01.iq.questrade.com/",
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}
}

func TestRun(t *testing.T) {
	fake := newFakeQuestrade()
	fake.accounts = []models.Account{
		{ID: "111", Type: "TFSA"},
		{ID: "222", Type: "RRSP"},
	}
	fake.positions["111"] = []models.Position{
		{Symbol: "XEQT.TO", SymbolID: 1, TotalCost: 1000, CurrentMarketValue: 1100},
	}
	fake.positions["222"] = []models.Position{
		{Symbol: "ZAG.TO", SymbolID: 2, TotalCost: 900, CurrentMarketValue: 900},
	}
	fake.symbols[1] = &models.Symbol{Symbol: "XEQT.TO", SymbolID: 1, DividendPerShare: 0.22}
	fake.symbols[2] = &models.Symbol{Symbol: "ZAG.TO", SymbolID: 2, YieldPercent: 3.4}

	service := NewService(fake, testPolicy(), 2, common.NewSilentLogger())

	report, err := service.Run(context.Background(), testSession())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Accounts, 2)
	assert.Empty(t, report.Failures)

	// Listing order is preserved regardless of worker completion order.
	assert.Equal(t, "111", report.Accounts[0].Account.ID)
	assert.Equal(t, "222", report.Accounts[1].Account.ID)

	require.NotNil(t, report.Summary)
	assert.InDelta(t, 2000, report.Summary.TotalMarketValue, 1e-9)
	require.Len(t, report.Summary.Classes, 2)

	require.Contains(t, report.Symbols, 1)
	assert.InDelta(t, 0.22, report.Symbols[1].DividendPerShare, 1e-9)
}

func TestRun_ListAccountsFailureIsFatal(t *testing.T) {
	fake := newFakeQuestrade()
	fake.accountsErr = errors.New("boom")

	service := NewService(fake, testPolicy(), 2, common.NewSilentLogger())

	_, err := service.Run(context.Background(), testSession())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list accounts")
}

func TestRun_AccountFailureIsSkipped(t *testing.T) {
	fake := newFakeQuestrade()
	fake.accounts = []models.Account{
		{ID: "111", Type: "TFSA"},
		{ID: "222", Type: "RRSP"},
	}
	fake.balancesErr["222"] = errors.New("server error")
	fake.positions["111"] = []models.Position{
		{Symbol: "XEQT.TO", SymbolID: 1, TotalCost: 1000, CurrentMarketValue: 1100},
	}
	fake.symbols[1] = &models.Symbol{Symbol: "XEQT.TO", SymbolID: 1}

	service := NewService(fake, testPolicy(), 2, common.NewSilentLogger())

	report, err := service.Run(context.Background(), testSession())
	require.NoError(t, err)

	// The failed account is reported, the healthy one still aggregates.
	require.Len(t, report.Accounts, 1)
	assert.Equal(t, "111", report.Accounts[0].Account.ID)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "222", report.Failures[0].AccountID)
	assert.Contains(t, report.Failures[0].Reason, "server error")

	assert.InDelta(t, 1100, report.Summary.TotalMarketValue, 1e-9)
}

func TestRun_SymbolLookupsAreDeduplicated(t *testing.T) {
	fake := newFakeQuestrade()
	fake.accounts = []models.Account{
		{ID: "111", Type: "TFSA"},
		{ID: "222", Type: "RRSP"},
		{ID: "333", Type: "Margin"},
	}
	shared := models.Position{Symbol: "XEQT.TO", SymbolID: 1, TotalCost: 100, CurrentMarketValue: 110}
	fake.positions["111"] = []models.Position{shared}
	fake.positions["222"] = []models.Position{shared}
	fake.positions["333"] = []models.Position{shared, {Symbol: "ZAG.TO", SymbolID: 2, TotalCost: 50, CurrentMarketValue: 50}}
	fake.symbols[1] = &models.Symbol{Symbol: "XEQT.TO", SymbolID: 1}
	fake.symbols[2] = &models.Symbol{Symbol: "ZAG.TO", SymbolID: 2}

	service := NewService(fake, testPolicy(), 3, common.NewSilentLogger())

	_, err := service.Run(context.Background(), testSession())
	require.NoError(t, err)

	// One lookup per distinct symbol ID no matter how many accounts hold it.
	assert.Equal(t, 1, fake.symbolCalls[1])
	assert.Equal(t, 1, fake.symbolCalls[2])
}

func TestRun_SymbolFailureFailsTheAccount(t *testing.T) {
	fake := newFakeQuestrade()
	fake.accounts = []models.Account{{ID: "111", Type: "TFSA"}}
	fake.positions["111"] = []models.Position{
		{Symbol: "GHOST", SymbolID: 99, TotalCost: 10, CurrentMarketValue: 10},
	}

	service := NewService(fake, testPolicy(), 1, common.NewSilentLogger())

	report, err := service.Run(context.Background(), testSession())
	require.NoError(t, err)

	assert.Empty(t, report.Accounts)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Reason, "symbol 99")
}

func TestRun_NoAccountsDegrades(t *testing.T) {
	fake := newFakeQuestrade()

	service := NewService(fake, testPolicy(), 2, common.NewSilentLogger())

	report, err := service.Run(context.Background(), testSession())
	require.NoError(t, err)

	require.NotNil(t, report.Summary)
	assert.True(t, report.Summary.NoMarketValue)
	assert.Empty(t, report.Accounts)
}

func TestRun_Cancelled(t *testing.T) {
	fake := newFakeQuestrade()
	fake.accounts = []models.Account{{ID: "111", Type: "TFSA"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := NewService(fake, testPolicy(), 1, common.NewSilentLogger())

	_, err := service.Run(ctx, testSession())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
