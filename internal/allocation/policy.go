// Package allocation folds positions into per-symbol and per-class buckets
// and derives rebalancing signals against a target allocation.
package allocation

import (
	"math"

	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/models"
)

// Policy maps ticker symbols to asset classes and supplies the target
// percentages and deviation margins used for rebalancing signals.
type Policy struct {
	classes       map[string]models.AssetClass
	targets       map[models.AssetClass]float64
	warningMargin float64
	errorMargin   float64
}

// NewPolicy builds a policy from the allocation config section.
func NewPolicy(cfg common.AllocationConfig) *Policy {
	classes := make(map[string]models.AssetClass, len(cfg.Classes))
	for symbol, name := range cfg.Classes {
		classes[symbol] = models.ParseAssetClass(name)
	}

	targets := make(map[models.AssetClass]float64, len(cfg.Targets))
	for name, target := range cfg.Targets {
		targets[models.ParseAssetClass(name)] = target
	}

	return &Policy{
		classes:       classes,
		targets:       targets,
		warningMargin: cfg.WarningMargin,
		errorMargin:   cfg.ErrorMargin,
	}
}

// Classify returns the asset class for a symbol. Total over all strings:
// any symbol absent from the mapping is Cash.
func (p *Policy) Classify(symbol string) models.AssetClass {
	if class, ok := p.classes[symbol]; ok {
		return class
	}
	return models.AssetClassCash
}

// TargetPercent returns the target allocation for a class, zero if unset.
func (p *Policy) TargetPercent(class models.AssetClass) float64 {
	return p.targets[class]
}

// DeviationBand classifies how far an actual allocation sits from its
// class target. With delta = target - actual: on target while |delta| is
// under the warning margin, error at or past the error margin, warning
// in between.
func (p *Policy) DeviationBand(actualPercent float64, class models.AssetClass) models.DeviationBand {
	delta := math.Abs(p.TargetPercent(class) - actualPercent)

	switch {
	case delta < p.warningMargin:
		return models.BandOnTarget
	case delta >= p.errorMargin:
		return models.BandError
	default:
		return models.BandWarning
	}
}
