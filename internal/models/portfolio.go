package models

import "time"

// AssetClass identifies the broad asset bucket a symbol belongs to.
type AssetClass string

const (
	AssetClassStocks AssetClass = "Stocks"
	AssetClassBonds  AssetClass = "Bonds"
	AssetClassCash   AssetClass = "Cash"
)

// ParseAssetClass maps a config class name to an AssetClass.
// Unknown names fall through to Cash, matching the classification default.
func ParseAssetClass(name string) AssetClass {
	switch name {
	case "stocks", "Stocks":
		return AssetClassStocks
	case "bonds", "Bonds":
		return AssetClassBonds
	default:
		return AssetClassCash
	}
}

// DeviationBand classifies how far a class allocation sits from its target.
type DeviationBand string

const (
	BandOnTarget DeviationBand = "on_target"
	BandWarning  DeviationBand = "warning"
	BandError    DeviationBand = "error"
)

// SymbolBucket is the additive cost/value accumulator for one ticker symbol.
type SymbolBucket struct {
	Symbol      string  `json:"symbol"`
	TotalCost   float64 `json:"total_cost"`
	MarketValue float64 `json:"market_value"`
	Percent     float64 `json:"percent"`
}

// ClassBucket is the additive cost/value accumulator for one asset class,
// annotated with its rebalancing deviation band.
type ClassBucket struct {
	Class         AssetClass    `json:"class"`
	TotalCost     float64       `json:"total_cost"`
	MarketValue   float64       `json:"market_value"`
	Percent       float64       `json:"percent"`
	TargetPercent float64       `json:"target_percent"`
	Band          DeviationBand `json:"band"`
}

// PortfolioSummary is the immutable snapshot produced at the end of a run.
// Symbol and class buckets are sorted by descending market value; the sums of
// their market values both equal TotalMarketValue.
type PortfolioSummary struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	TotalCost        float64        `json:"total_cost"`
	TotalMarketValue float64        `json:"total_market_value"`
	Symbols          []SymbolBucket `json:"symbols"`
	Classes          []ClassBucket  `json:"classes"`

	// NoMarketValue marks an empty portfolio: percentages are zero and must
	// be rendered as "no data", not as allocations.
	NoMarketValue bool `json:"no_market_value,omitempty"`
}

// AccountFailure records an account skipped during a run and why.
type AccountFailure struct {
	AccountID string `json:"account_id"`
	Err       error  `json:"-"`
	Reason    string `json:"reason"`
}

// PortfolioReport is the full result of one tracking run: per-account data,
// the deduplicated symbol map, the aggregate summary, and any accounts that
// were skipped after a fetch failure.
type PortfolioReport struct {
	RunID     string
	Accounts  []AccountData
	Symbols   map[int]Symbol
	Summary   *PortfolioSummary
	Failures  []AccountFailure
	FetchedAt time.Time
}
