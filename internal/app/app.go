// Package app wires configuration, storage, clients, and services together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmcnabb/questfolio/internal/allocation"
	"github.com/dmcnabb/questfolio/internal/auth"
	"github.com/dmcnabb/questfolio/internal/clients/gemini"
	"github.com/dmcnabb/questfolio/internal/clients/questrade"
	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/interfaces"
	"github.com/dmcnabb/questfolio/internal/services/tracker"
	"github.com/dmcnabb/questfolio/internal/storage"
)

// App holds all initialized services and clients. It is the shared core
// behind cmd/questfolio.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       interfaces.CredentialStore
	Questrade   interfaces.QuestradeClient
	Gemini      interfaces.GeminiClient
	Rotator     *auth.Rotator
	Tracker     interfaces.TrackerService
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Check provided path, QUESTFOLIO_CONFIG, then binary dir, then fallback.
	if configPath == "" {
		configPath = os.Getenv("QUESTFOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "questfolio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/questfolio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Badger.Path != "" && !filepath.IsAbs(config.Storage.Badger.Path) {
		config.Storage.Badger.Path = filepath.Join(binDir, config.Storage.Badger.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := storage.NewCredentialStore(ctx, logger, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	qtClient := questrade.NewClient(
		questrade.WithLoginURL(config.Questrade.LoginURL),
		questrade.WithLogger(logger),
		questrade.WithRateLimit(config.Questrade.RateLimit),
		questrade.WithTimeout(config.Questrade.GetTimeout()),
	)

	var geminiClient interfaces.GeminiClient
	if config.Gemini.APIKey != "" {
		geminiClient, err = gemini.NewClient(ctx, config.Gemini.APIKey,
			gemini.WithModel(config.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini client unavailable - commentary disabled")
			geminiClient = nil
		}
	} else {
		logger.Debug().Msg("Gemini API key not configured - commentary disabled")
	}

	rotator := auth.NewRotator(store, qtClient, logger)

	policy := allocation.NewPolicy(config.Allocation)
	trackerService := tracker.NewService(qtClient, policy, config.Questrade.Workers, logger)

	logger.Info().
		Str("environment", config.Environment).
		Str("storage", config.Storage.Backend).
		Dur("startup", time.Since(startupStart)).
		Msg("Application initialized")

	return &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Questrade:   qtClient,
		Gemini:      geminiClient,
		Rotator:     rotator,
		Tracker:     trackerService,
		StartupTime: time.Now(),
	}, nil
}

// Close releases the credential store.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close credential store")
		}
	}
}
