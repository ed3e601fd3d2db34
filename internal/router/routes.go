package router

import (
	"net/http"

	"github.com/aashari/go-multimodel-dispatch/internal/handlers"
	"github.com/aashari/go-multimodel-dispatch/internal/middleware"
	"github.com/aashari/go-multimodel-dispatch/internal/monitoring"
	"github.com/aashari/go-multimodel-dispatch/internal/utils"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes configures all routes for the application
func SetupRoutes(apiHandlers *handlers.APIHandlers) http.Handler {
	mux := http.NewServeMux()

	// Register API handlers
	mux.HandleFunc("/health", apiHandlers.HealthHandler)
	mux.HandleFunc("/v1/dispatch", apiHandlers.DispatchHandler)
	mux.HandleFunc("/v1/models", apiHandlers.ModelsHandler)
	mux.HandleFunc("/v1/history", apiHandlers.HistoryHandler)
	mux.HandleFunc("/v1/history/{dispatchId}", apiHandlers.HistoryRecordHandler)

	// Add metrics endpoint
	mux.HandleFunc("/metrics", monitoring.MetricsHandler)

	// pprof is for operators; keep it off public production listeners
	// unless explicitly enabled
	if utils.GetEnvBool("ENABLE_PPROF", !utils.IsProduction()) {
		monitoring.SetupPprofRoutes(mux)
	}

	// Serve Swagger UI
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Middleware chain: correlation IDs innermost so every request is tracked,
	// then metrics, then CORS outermost for preflight short-circuiting
	handler := middleware.RequestCorrelationMiddleware(mux)
	handler = monitoring.MetricsMiddleware(handler)
	return middleware.CORSMiddleware(handler)
}
