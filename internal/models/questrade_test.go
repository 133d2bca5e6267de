package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveQuantity(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want float64
	}{
		{"open only", Position{OpenQuantity: 10}, 10},
		{"closed overrides open", Position{OpenQuantity: 10, ClosedQuantity: 5}, 5},
		{"both zero", Position{}, 0},
		{"closed only", Position{ClosedQuantity: 3}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pos.EffectiveQuantity())
		})
	}
}

func TestEffectivePnL(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want float64
	}{
		{"open only", Position{OpenPnL: 42.5}, 42.5},
		{"closed overrides open", Position{OpenPnL: 42.5, ClosedPnL: -7.25}, -7.25},
		{"both zero", Position{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pos.EffectivePnL())
		})
	}
}

func TestCombinedFor(t *testing.T) {
	balances := Balances{
		Combined: []Balance{
			{Currency: "CAD", Cash: 100, MarketValue: 900, TotalEquity: 1000},
			{Currency: "USD", Cash: 50, MarketValue: 450, TotalEquity: 500},
		},
	}

	cad, ok := balances.CombinedFor("CAD")
	require.True(t, ok)
	assert.Equal(t, 1000.0, cad.TotalEquity)

	_, ok = balances.CombinedFor("EUR")
	assert.False(t, ok)
}

func TestPosition_UnmarshalsQuestradePayload(t *testing.T) {
	payload := `{
		"symbol": "XEQT.TO",
		"symbolId": 29783786,
		"openQuantity": 120,
		"closedQuantity": 0,
		"currentMarketValue": 3571.20,
		"currentPrice": 29.76,
		"averageEntryPrice": 27.78,
		"closedPnl": 0,
		"openPnl": 237.60,
		"totalCost": 3333.60
	}`

	var pos Position
	require.NoError(t, json.Unmarshal([]byte(payload), &pos))

	assert.Equal(t, "XEQT.TO", pos.Symbol)
	assert.Equal(t, 29783786, pos.SymbolID)
	assert.Equal(t, 120.0, pos.EffectiveQuantity())
	assert.InDelta(t, 237.60, pos.EffectivePnL(), 1e-9)
	assert.InDelta(t, 3333.60, pos.TotalCost, 1e-9)
}
