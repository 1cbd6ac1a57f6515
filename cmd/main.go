package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/auth"
	"github.com/epheterson/mcp-applemusic/internal/repositories"
	"github.com/epheterson/mcp-applemusic/internal/resolve"
	"github.com/epheterson/mcp-applemusic/internal/services"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/epheterson/mcp-applemusic/internal/tasks"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("APPLEMUSIC_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("ignoring unreadable config at %s: %v", configPath, err)
		}
	}

	runner := buildRunner(config, configPath, logger)

	app := &cli.Command{
		Name:     "amctl",
		Usage:    "Resolve, search, and manage Apple Music playlists",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// buildRunner constructs services from whatever the config provides. Missing
// credentials or an absent cache database degrade the runner rather than
// abort startup; individual commands report what they are missing.
func buildRunner(config *shared.Config, configPath string, logger *log.Logger) *Runner {
	var authMgr *auth.Manager
	if config.Credentials.TeamID != "" && config.Credentials.KeyID != "" {
		mgr, err := auth.NewManager(auth.ManagerOpts{
			TeamID:         config.Credentials.TeamID,
			KeyID:          config.Credentials.KeyID,
			PrivateKeyPath: config.Credentials.PrivateKeyPath,
			Logger:         logger,
		})
		if err != nil {
			logger.Warnf("token manager unavailable: %v", err)
		} else {
			authMgr = mgr
		}
	}

	catalogOpts := services.CatalogOpts{
		Storefront: config.Preferences.Storefront,
		Logger:     logger,
	}
	if authMgr != nil {
		catalogOpts.Tokens = authMgr
	}
	catalog := services.NewCatalogService(catalogOpts)

	automation := services.NewAutomationService(services.AutomationOpts{
		TimeoutSeconds: config.Automation.TimeoutSeconds,
		Logger:         logger,
	})

	resolver := resolve.NewResolver(catalog, automation, resolve.Options{
		Storefront: config.Preferences.Storefront,
		AutoSearch: config.Preferences.AutoSearch,
	}, logger)

	var trackCache *repositories.TrackCacheRepository
	var albumCache *repositories.AlbumCacheRepository
	if config.Database.Path != "" {
		if _, err := os.Stat(config.Database.Path); err == nil {
			if db, err := shared.NewDatabase(config.Database.Path); err == nil {
				shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
				trackCache = repositories.NewTrackCacheRepository(db)
				albumCache = repositories.NewAlbumCacheRepository(db)
			} else {
				logger.Warnf("metadata cache unavailable: %v", err)
			}
		}
	}

	auditLog, err := tasks.NewAuditLog("", logger)
	if err != nil {
		logger.Warnf("audit log unavailable: %v", err)
	}

	engine := tasks.NewEngine(tasks.EngineOpts{
		Resolver:   resolver,
		Catalog:    catalog,
		Automation: automation,
		TrackCache: trackCache,
		Audit:      auditLog,
		Logger:     logger,
	})

	var apiService *services.APIService
	if authMgr != nil {
		apiService = services.NewAPIService("", authMgr, nil)
	}

	return NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Auth:       authMgr,
		Catalog:    catalog,
		Automation: automation,
		API:        apiService,
		Resolver:   resolver,
		Engine:     engine,
		Tracks:     trackCache,
		Albums:     albumCache,
		Audit:      auditLog,
		Logger:     logger,
	})
}
