// Package models defines data structures for Questfolio
package models

import "time"

// Account identifies a Questrade brokerage account. Immutable for a run.
type Account struct {
	ID   string `json:"number"`
	Type string `json:"type"`
}

// SessionToken is the short-lived credential obtained from a token exchange.
// Held in memory for the duration of one run; never persisted.
type SessionToken struct {
	AccessToken string
	APIServer   string // base URL for all data calls, returned by the exchange
	ExpiresAt   time.Time
}

// TokenExchange is the raw response of the OAuth2 refresh-token exchange.
// RefreshToken is the next single-use token; the one sent is now burned.
type TokenExchange struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	APIServer    string `json:"api_server"`
}

// Balance is a single currency row of an account's balances.
type Balance struct {
	Currency    string  `json:"currency"`
	Cash        float64 `json:"cash"`
	MarketValue float64 `json:"marketValue"`
	TotalEquity float64 `json:"totalEquity"`
}

// Balances groups per-currency and combined balance rows for one account.
type Balances struct {
	PerCurrency []Balance `json:"perCurrencyBalances"`
	Combined    []Balance `json:"combinedBalances"`
}

// CombinedFor returns the combined balance row for the given currency, if present.
func (b *Balances) CombinedFor(currency string) (Balance, bool) {
	for _, bal := range b.Combined {
		if bal.Currency == currency {
			return bal, true
		}
	}
	return Balance{}, false
}

// Position is a single holding within one account.
type Position struct {
	Symbol             string  `json:"symbol"`
	SymbolID           int     `json:"symbolId"`
	OpenQuantity       float64 `json:"openQuantity"`
	ClosedQuantity     float64 `json:"closedQuantity"`
	CurrentMarketValue float64 `json:"currentMarketValue"`
	CurrentPrice       float64 `json:"currentPrice"`
	AverageEntryPrice  float64 `json:"averageEntryPrice"`
	ClosedPnL          float64 `json:"closedPnl"`
	OpenPnL            float64 `json:"openPnl"`
	TotalCost          float64 `json:"totalCost"`
}

// EffectiveQuantity returns the quantity the position actually represents.
// A closed-out lot reports its realized quantity in ClosedQuantity, which
// overrides OpenQuantity when nonzero.
func (p *Position) EffectiveQuantity() float64 {
	if p.ClosedQuantity != 0 {
		return p.ClosedQuantity
	}
	return p.OpenQuantity
}

// EffectivePnL returns the P&L under the same closed-over-open override rule.
func (p *Position) EffectivePnL() float64 {
	if p.ClosedPnL != 0 {
		return p.ClosedPnL
	}
	return p.OpenPnL
}

// Symbol is the instrument detail looked up once per distinct symbol ID.
type Symbol struct {
	Symbol           string  `json:"symbol"`
	SymbolID         int     `json:"symbolId"`
	DividendPerShare float64 `json:"dividend"`
	YieldPercent     float64 `json:"yield"`
}

// AccountData bundles everything fetched for one account.
type AccountData struct {
	Account   Account
	Balances  Balances
	Positions []Position
}
