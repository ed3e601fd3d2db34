// Package app wires the gateway's components together: configuration,
// model catalog, orchestrator client, optional history store, and routes.
package app

import (
	"context"
	"net/http"
	"os"

	"github.com/aashari/go-multimodel-dispatch/internal/catalog"
	"github.com/aashari/go-multimodel-dispatch/internal/config"
	"github.com/aashari/go-multimodel-dispatch/internal/handlers"
	"github.com/aashari/go-multimodel-dispatch/internal/history"
	"github.com/aashari/go-multimodel-dispatch/internal/logger"
	"github.com/aashari/go-multimodel-dispatch/internal/orchestrator"
	"github.com/aashari/go-multimodel-dispatch/internal/router"
	"github.com/aashari/go-multimodel-dispatch/internal/utils"
)

// App centralizes the application's dependencies and configuration
type App struct {
	Settings *config.Settings
	Catalog  *catalog.Catalog
	Client   *orchestrator.WebhookClient
	History  *history.Store
	Handlers *handlers.APIHandlers
}

// NewApp creates a new App instance with all dependencies
func NewApp(ctx context.Context) (*App, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	logger.Info(logger.WithStage(ctx, logger.LogStages.Initialization),
		"Loaded model catalog",
		"models", cat.Size(),
		"orchestrator_configured", settings.Orchestrator.Configured(),
		"webhook_url", settings.Orchestrator.WebhookURL,
	)

	client := orchestrator.NewWebhookClient(settings.Orchestrator)

	// History is optional: no MONGODB_URI means run without persistence,
	// and a failed connection degrades health rather than aborting startup
	var store *history.Store
	if storeConfig := history.ConfigFromEnv(); storeConfig != nil {
		store, err = history.Connect(ctx, storeConfig)
		if err != nil {
			logger.Warn(ctx, "History store unavailable, continuing without persistence",
				"error_detail", err.Error())
			store = nil
		}
	}

	return &App{
		Settings: settings,
		Catalog:  cat,
		Client:   client,
		History:  store,
		Handlers: handlers.NewAPIHandlers(settings, cat, client, store),
	}, nil
}

// loadCatalog uses the built-in model set unless MODELS_FILE points elsewhere
func loadCatalog() (*catalog.Catalog, error) {
	if path := utils.GetEnvString("MODELS_FILE", ""); path != "" {
		return catalog.LoadFile(path)
	}
	return catalog.Default(), nil
}

// SetupRoutes returns the fully configured HTTP handler
func (a *App) SetupRoutes() http.Handler {
	return router.SetupRoutes(a.Handlers)
}

// Shutdown releases held resources
func (a *App) Shutdown(ctx context.Context) {
	if a.History != nil {
		if err := a.History.Disconnect(ctx); err != nil {
			logger.Warn(ctx, "Failed to disconnect history store", "error_detail", err.Error())
		}
	}
}

// Environment returns the running environment name
func (a *App) Environment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}
