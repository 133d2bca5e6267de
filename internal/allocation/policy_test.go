package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/models"
)

func testConfig() common.AllocationConfig {
	return common.AllocationConfig{
		Classes: map[string]string{
			"XEQT.TO": "stocks",
			"ZEQT.TO": "stocks",
			"ZAG.TO":  "bonds",
		},
		Targets: map[string]float64{
			"stocks": 50,
			"bonds":  50,
			"cash":   0,
		},
		WarningMargin: 2.5,
		ErrorMargin:   5.0,
	}
}

func TestClassify(t *testing.T) {
	policy := NewPolicy(testConfig())

	assert.Equal(t, models.AssetClassStocks, policy.Classify("XEQT.TO"))
	assert.Equal(t, models.AssetClassStocks, policy.Classify("ZEQT.TO"))
	assert.Equal(t, models.AssetClassBonds, policy.Classify("ZAG.TO"))
}

func TestClassify_UnmappedSymbolIsCash(t *testing.T) {
	policy := NewPolicy(testConfig())

	assert.Equal(t, models.AssetClassCash, policy.Classify("AAPL"))
	assert.Equal(t, models.AssetClassCash, policy.Classify(""))
	assert.Equal(t, models.AssetClassCash, policy.Classify("anything-at-all"))
}

func TestClassify_UnknownClassNameFallsBackToCash(t *testing.T) {
	cfg := testConfig()
	cfg.Classes["WEIRD.TO"] = "crypto"

	policy := NewPolicy(cfg)

	assert.Equal(t, models.AssetClassCash, policy.Classify("WEIRD.TO"))
}

func TestTargetPercent(t *testing.T) {
	policy := NewPolicy(testConfig())

	assert.Equal(t, 50.0, policy.TargetPercent(models.AssetClassStocks))
	assert.Equal(t, 50.0, policy.TargetPercent(models.AssetClassBonds))
	assert.Equal(t, 0.0, policy.TargetPercent(models.AssetClassCash))
}

func TestDeviationBand(t *testing.T) {
	policy := NewPolicy(testConfig())

	tests := []struct {
		name   string
		actual float64
		want   models.DeviationBand
	}{
		{"exactly on target", 50.0, models.BandOnTarget},
		{"just inside warning margin", 48.0, models.BandOnTarget},
		{"at warning margin", 47.5, models.BandWarning},
		{"between margins", 47.0, models.BandWarning},
		{"at error margin", 45.0, models.BandError},
		{"far below target", 44.0, models.BandError},
		{"far above target", 56.0, models.BandError},
		{"above within warning", 51.9, models.BandOnTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.DeviationBand(tt.actual, models.AssetClassStocks))
		})
	}
}

func TestDeviationBand_CashZeroTarget(t *testing.T) {
	policy := NewPolicy(testConfig())

	assert.Equal(t, models.BandOnTarget, policy.DeviationBand(1.0, models.AssetClassCash))
	assert.Equal(t, models.BandWarning, policy.DeviationBand(3.0, models.AssetClassCash))
	assert.Equal(t, models.BandError, policy.DeviationBand(7.0, models.AssetClassCash))
}
