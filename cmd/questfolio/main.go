package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dmcnabb/questfolio/internal/app"
	"github.com/dmcnabb/questfolio/internal/auth"
	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/models"
	"github.com/dmcnabb/questfolio/internal/render"
)

func main() {
	configPath := flag.String("config", "", "path to questfolio.toml")
	seedToken := flag.String("auth", "", "seed a fresh Questrade refresh token and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.NewApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if *seedToken != "" {
		if err := a.Store.Seed(ctx, strings.TrimSpace(*seedToken)); err != nil {
			a.Logger.Fatal().Err(err).Msg("Failed to seed refresh token")
		}
		a.Logger.Info().Msg("Refresh token seeded")
		return
	}

	common.PrintBanner(a.Config, a.Logger)

	rotation, err := a.Rotator.Rotate(ctx)
	if err != nil {
		var credErr *auth.CredentialError
		if errors.As(err, &credErr) {
			a.Logger.Error().Err(err).Msg("Credential rotation failed - seed a fresh token with -auth")
		} else {
			a.Logger.Error().Err(err).Msg("Credential rotation failed")
		}
		os.Exit(1)
	}
	if rotation.PersistErr != nil {
		a.Logger.Warn().Err(rotation.PersistErr).
			Msg("New refresh token was not persisted - the next run will need -auth")
	}

	session := rotation.Session

	report, err := a.Tracker.Run(ctx, session)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Portfolio fetch failed")
		os.Exit(1)
	}

	renderer := render.NewRenderer(os.Stdout, a.Config.HomeCurrency)
	renderer.Home(report)

	repl(ctx, a, renderer, session, report)

	common.PrintShutdownBanner(a.Logger)
}

// repl reads commands from stdin until quit or EOF.
func repl(ctx context.Context, a *app.App, renderer *render.Renderer, session *models.SessionToken, report *models.PortfolioReport) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			continue
		case "help":
			printHelp()
		case "home":
			renderer.Home(report)
		case "accounts":
			renderer.Accounts(report)
		case "positions":
			renderer.Positions(report)
		case "summary":
			renderer.Summary(report.Summary)
		case "refresh":
			fresh, err := a.Tracker.Run(ctx, session)
			if err != nil {
				a.Logger.Error().Err(err).Msg("Refresh failed")
				continue
			}
			report = fresh
			renderer.Home(report)
		case "chart":
			writeChart(a, report)
		case "commentary":
			commentary(ctx, a, report)
		case "quit", "exit":
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list.")
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  home        accounts, positions, and summary
  accounts    account balances
  positions   positions with dividends and P&L
  summary     symbol and asset-class composition
  refresh     re-fetch from Questrade
  chart       write the allocation chart PNG
  commentary  AI commentary on the allocation
  quit        exit`)
}

func writeChart(a *app.App, report *models.PortfolioReport) {
	png, err := render.RenderAllocationChart(report.Summary)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Chart render failed")
		return
	}

	if err := os.MkdirAll(a.Config.ChartDir, 0o755); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to create chart directory")
		return
	}

	path := filepath.Join(a.Config.ChartDir, fmt.Sprintf("allocation-%s.png", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to write chart")
		return
	}

	fmt.Printf("Chart written to %s\n", path)
}

func commentary(ctx context.Context, a *app.App, report *models.PortfolioReport) {
	if a.Gemini == nil {
		fmt.Println("Commentary requires GEMINI_API_KEY.")
		return
	}
	if report.Summary == nil || report.Summary.NoMarketValue {
		fmt.Println("No market value to comment on.")
		return
	}

	text, err := a.Gemini.GenerateContent(ctx, commentaryPrompt(report.Summary))
	if err != nil {
		a.Logger.Error().Err(err).Msg("Commentary failed")
		return
	}

	fmt.Println(text)
}

// commentaryPrompt describes the allocation against its targets.
func commentaryPrompt(summary *models.PortfolioSummary) string {
	var sb strings.Builder
	sb.WriteString("Comment briefly on this portfolio allocation and whether rebalancing is warranted.\n\n")
	for _, b := range summary.Classes {
		fmt.Fprintf(&sb, "- %s: %.2f%% (target %.2f%%, band %s)\n", b.Class, b.Percent, b.TargetPercent, b.Band)
	}
	sb.WriteString("\nKeep it under 150 words.")
	return sb.String()
}
