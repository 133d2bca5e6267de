package render

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dmcnabb/questfolio/internal/models"
)

var classColors = map[models.AssetClass]drawing.Color{
	models.AssetClassStocks: drawing.ColorFromHex("2563eb"), // blue-600
	models.AssetClassBonds:  drawing.ColorFromHex("16a34a"), // green-600
	models.AssetClassCash:   drawing.ColorFromHex("9ca3af"), // gray-400
}

// RenderAllocationChart renders a PNG donut of the asset-class split.
// Returns raw PNG bytes.
func RenderAllocationChart(summary *models.PortfolioSummary) ([]byte, error) {
	if summary == nil || summary.NoMarketValue {
		return nil, fmt.Errorf("no market value to chart")
	}

	values := make([]chart.Value, 0, len(summary.Classes))
	for _, b := range summary.Classes {
		if b.MarketValue <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", b.Class, b.Percent),
			Value: b.MarketValue,
			Style: chart.Style{
				FillColor: classColors[b.Class],
			},
		})
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no positive class values to chart")
	}

	graph := chart.DonutChart{
		Title:  "Asset Allocation",
		Width:  600,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
