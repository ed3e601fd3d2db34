package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aashari/go-multimodel-dispatch/internal/app"
	"github.com/aashari/go-multimodel-dispatch/internal/config"
	"github.com/aashari/go-multimodel-dispatch/internal/logger"
)

// @title           Multi-Model Dispatch Gateway
// @version         1.0
// @description     Dispatches a prompt (text, image, or audio) to a selection of AI models through an orchestrator webhook and aggregates the per-model results.

// @contact.name   API Support
// @contact.url    https://github.com/aashari/go-multimodel-dispatch

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8082
// @BasePath  /

func main() {
	// Initialize structured logging
	if err := logger.InitFromEnv(); err != nil {
		// Can't use logger here as it failed to initialize
		_, _ = os.Stderr.WriteString("FATAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := context.Background()

	// Load .env files before reading configuration
	if err := config.LoadEnvFromMultiplePaths(); err != nil {
		logger.Warn(ctx, "No .env file loaded", "error_detail", err.Error())
	}

	application, err := app.NewApp(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to initialize application", err)
		os.Exit(1)
	}

	handler := application.SetupRoutes()
	addr := application.Settings.Server.Addr()

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  application.Settings.Server.ReadTimeout,
		WriteTimeout: application.Settings.Server.WriteTimeout,
		IdleTimeout:  application.Settings.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "Server starting",
			"address", addr,
			"environment", application.Environment(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Server failed", err)
			os.Exit(1)
		}
	}()

	// Block until interrupted, then drain in-flight requests
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info(ctx, "Shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Graceful shutdown failed", err)
	}

	application.Shutdown(shutdownCtx)
	logger.Info(ctx, "Server stopped")
}
