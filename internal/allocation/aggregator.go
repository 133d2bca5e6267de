package allocation

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dmcnabb/questfolio/internal/models"
)

// ErrNoMarketValue indicates Finalize was asked to compute percentages over
// a portfolio with zero total market value. The summary is still returned
// with NoMarketValue set; callers render it as "no data", not a crash.
var ErrNoMarketValue = errors.New("portfolio has no market value")

type bucket struct {
	totalCost   float64
	marketValue float64
}

// Aggregator accumulates positions into symbol-level and class-level
// cost/value buckets. Accumulate is safe for concurrent callers; Finalize
// is a pure projection and may be called any number of times.
type Aggregator struct {
	policy *Policy

	mu          sync.Mutex
	totalCost   float64
	totalValue  float64
	symbolOrder []string
	symbols     map[string]*bucket
	classOrder  []models.AssetClass
	classes     map[models.AssetClass]*bucket
}

// NewAggregator creates an empty aggregator using the given policy.
func NewAggregator(policy *Policy) *Aggregator {
	return &Aggregator{
		policy:  policy,
		symbols: make(map[string]*bucket),
		classes: make(map[models.AssetClass]*bucket),
	}
}

// Accumulate adds one position's cost and market value to its symbol bucket
// and its class bucket. Every position contributes to exactly one of each.
func (a *Aggregator) Accumulate(position models.Position) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cost := position.TotalCost
	value := position.CurrentMarketValue

	a.totalCost += cost
	a.totalValue += value

	sb, ok := a.symbols[position.Symbol]
	if !ok {
		sb = &bucket{}
		a.symbols[position.Symbol] = sb
		a.symbolOrder = append(a.symbolOrder, position.Symbol)
	}
	sb.totalCost += cost
	sb.marketValue += value

	class := a.policy.Classify(position.Symbol)
	cb, ok := a.classes[class]
	if !ok {
		cb = &bucket{}
		a.classes[class] = cb
		a.classOrder = append(a.classOrder, class)
	}
	cb.totalCost += cost
	cb.marketValue += value
}

// AccumulateAll feeds a batch of positions, typically one account's worth.
func (a *Aggregator) AccumulateAll(positions []models.Position) {
	for _, p := range positions {
		a.Accumulate(p)
	}
}

// Finalize projects the running totals into an immutable summary. Buckets
// are sorted by descending market value, ties keeping insertion order.
// Idempotent and side-effect-free; the aggregator is left untouched.
func (a *Aggregator) Finalize() (*models.PortfolioSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := &models.PortfolioSummary{
		GeneratedAt:      time.Now(),
		TotalCost:        a.totalCost,
		TotalMarketValue: a.totalValue,
	}

	noValue := a.totalValue == 0

	percent := func(value float64) float64 {
		if noValue {
			return 0
		}
		return value / a.totalValue * 100
	}

	summary.Symbols = make([]models.SymbolBucket, 0, len(a.symbolOrder))
	for _, symbol := range a.symbolOrder {
		b := a.symbols[symbol]
		summary.Symbols = append(summary.Symbols, models.SymbolBucket{
			Symbol:      symbol,
			TotalCost:   b.totalCost,
			MarketValue: b.marketValue,
			Percent:     percent(b.marketValue),
		})
	}
	sort.SliceStable(summary.Symbols, func(i, j int) bool {
		return summary.Symbols[i].MarketValue > summary.Symbols[j].MarketValue
	})

	summary.Classes = make([]models.ClassBucket, 0, len(a.classOrder))
	for _, class := range a.classOrder {
		b := a.classes[class]
		actual := percent(b.marketValue)
		summary.Classes = append(summary.Classes, models.ClassBucket{
			Class:         class,
			TotalCost:     b.totalCost,
			MarketValue:   b.marketValue,
			Percent:       actual,
			TargetPercent: a.policy.TargetPercent(class),
			Band:          a.policy.DeviationBand(actual, class),
		})
	}
	sort.SliceStable(summary.Classes, func(i, j int) bool {
		return summary.Classes[i].MarketValue > summary.Classes[j].MarketValue
	})

	if noValue {
		summary.NoMarketValue = true
		return summary, ErrNoMarketValue
	}

	return summary, nil
}
