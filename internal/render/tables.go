// Package render formats portfolio reports as ANSI console tables.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmcnabb/questfolio/internal/models"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// Renderer writes report tables to a single output stream.
type Renderer struct {
	out          io.Writer
	homeCurrency string
}

// NewRenderer creates a renderer. homeCurrency selects the combined
// balance row (default CAD).
func NewRenderer(out io.Writer, homeCurrency string) *Renderer {
	if homeCurrency == "" {
		homeCurrency = "CAD"
	}
	return &Renderer{out: out, homeCurrency: homeCurrency}
}

func colorize(s, color string) string {
	return color + s + colorReset
}

// colorPnL renders a P&L figure green when positive, red when negative.
func colorPnL(pnl float64) string {
	text := fmt.Sprintf("%.2f", pnl)
	switch {
	case pnl > 0:
		return colorize(text, colorGreen)
	case pnl < 0:
		return colorize(text, colorRed)
	default:
		return text
	}
}

func bandColor(band models.DeviationBand) string {
	switch band {
	case models.BandOnTarget:
		return colorGreen
	case models.BandError:
		return colorRed
	default:
		return colorYellow
	}
}

func (r *Renderer) title(text string, width int) {
	pad := (width - len(text)) / 2
	if pad < 0 {
		pad = 0
	}
	line := strings.Repeat("-", pad) + text + strings.Repeat("-", pad)
	fmt.Fprintln(r.out, colorize(line, colorCyan))
}

// Accounts renders every account header with its balance table.
func (r *Renderer) Accounts(report *models.PortfolioReport) {
	for _, data := range report.Accounts {
		header := fmt.Sprintf("Account: %s - %s", data.Account.Type, data.Account.ID)
		fmt.Fprintln(r.out, colorize(header, colorBlue))
		r.balances(&data.Balances)
	}
	r.failures(report)
}

func (r *Renderer) balances(balances *models.Balances) {
	fmt.Fprintf(r.out, "%-10s | %-10s | %-15s | %15s\n", "Currency", "Cash", "Market Value", "Total Equity")
	fmt.Fprintln(r.out, strings.Repeat("-", 59))

	for _, b := range balances.PerCurrency {
		fmt.Fprintf(r.out, "%-10s | %-10.2f | %-15.2f | %15.2f\n", b.Currency, b.Cash, b.MarketValue, b.TotalEquity)
	}

	fmt.Fprintln(r.out, strings.Repeat("=", 59))
	if combined, ok := balances.CombinedFor(r.homeCurrency); ok {
		fmt.Fprintf(r.out, "%-10s | %-10.2f | %-15.2f | %15.2f\n", "Combined", combined.Cash, combined.MarketValue, combined.TotalEquity)
	}
	fmt.Fprintln(r.out)
}

// Positions renders all positions across accounts with dividend and yield
// columns resolved from the deduplicated symbol map.
func (r *Renderer) Positions(report *models.PortfolioReport) {
	r.title("Positions", 129)
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%-10s | %-10s | %-10s | %-15s | %-15s | %-15s | %-10s | %-10s | %10s\n",
		"Symbol", "Quantity", "Avg Price", "Book Cost", "Market Price", "Market Value", "Dividend", "Yield", "P&L")
	fmt.Fprintln(r.out, strings.Repeat("-", 129))

	var totalCost, totalValue float64

	for _, data := range report.Accounts {
		for _, p := range data.Positions {
			var dividend, yield float64
			if sym, ok := report.Symbols[p.SymbolID]; ok {
				dividend = sym.DividendPerShare
				yield = sym.YieldPercent
			}

			totalCost += p.TotalCost
			totalValue += p.CurrentMarketValue

			fmt.Fprintf(r.out, "%-10s | %-10.0f | %-10.2f | %-15.2f | %-15.2f | %-15.2f | %-10.4f | %-10.2f | %10s\n",
				p.Symbol, p.EffectiveQuantity(), p.AverageEntryPrice, p.TotalCost, p.CurrentPrice,
				p.CurrentMarketValue, dividend, yield, colorPnL(p.EffectivePnL()))
		}
	}

	fmt.Fprintln(r.out, strings.Repeat("=", 129))
	fmt.Fprintf(r.out, "%-10s | %-10s | %-10s | %-15.2f | %-15s | %-15.2f | %-10s | %-10s | %10s\n",
		"Total", "", "", totalCost, "", totalValue, "", "", colorPnL(totalValue-totalCost))
	fmt.Fprintln(r.out)
	r.failures(report)
}

// Summary renders the per-symbol composition followed by the asset-class
// composition with deviation-colored percentages.
func (r *Renderer) Summary(summary *models.PortfolioSummary) {
	r.title("Portfolio Summary", 59)

	fmt.Fprintf(r.out, "\n%-10s | %-15s | %-15s | %10s\n", "Symbol", "Book Cost", "Market Value", "Percent")
	fmt.Fprintln(r.out, strings.Repeat("-", 59))
	for _, b := range summary.Symbols {
		fmt.Fprintf(r.out, "%-10s | %-15.2f | %-15.2f | %10s\n", b.Symbol, b.TotalCost, b.MarketValue, r.percent(summary, b.Percent))
	}
	fmt.Fprintln(r.out, strings.Repeat("=", 59))
	fmt.Fprintf(r.out, "%-10s | %-15.2f | %-15.2f\n", "Total", summary.TotalCost, summary.TotalMarketValue)

	fmt.Fprintf(r.out, "\n%-10s | %-15s | %-15s | %10s\n", "Asset", "Book Cost", "Market Value", "Percent")
	fmt.Fprintln(r.out, strings.Repeat("-", 59))
	for _, b := range summary.Classes {
		percent := r.percent(summary, b.Percent)
		if !summary.NoMarketValue {
			percent = colorize(fmt.Sprintf("%10.2f", b.Percent), bandColor(b.Band))
		}
		fmt.Fprintf(r.out, "%-10s | %-15.2f | %-15.2f | %10s\n", string(b.Class), b.TotalCost, b.MarketValue, percent)
	}
	fmt.Fprintln(r.out, strings.Repeat("=", 59))
	fmt.Fprintf(r.out, "%-10s | %-15.2f | %-15.2f\n", "Total", summary.TotalCost, summary.TotalMarketValue)
	fmt.Fprintln(r.out)
}

// percent formats a bucket percentage, or "no data" for empty portfolios.
func (r *Renderer) percent(summary *models.PortfolioSummary, value float64) string {
	if summary.NoMarketValue {
		return fmt.Sprintf("%10s", "no data")
	}
	return fmt.Sprintf("%10.2f", value)
}

// Home renders everything: accounts with balances, positions, and summary.
func (r *Renderer) Home(report *models.PortfolioReport) {
	r.Accounts(report)
	r.Positions(report)
	r.Summary(report.Summary)
}

func (r *Renderer) failures(report *models.PortfolioReport) {
	for _, f := range report.Failures {
		line := fmt.Sprintf("Account %s skipped: %s", f.AccountID, f.Reason)
		fmt.Fprintln(r.out, colorize(line, colorYellow))
	}
	if len(report.Failures) > 0 {
		fmt.Fprintln(r.out)
	}
}
