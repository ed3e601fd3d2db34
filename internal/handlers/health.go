package handlers

import (
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/aashari/go-multimodel-dispatch/internal/errors"
	"github.com/aashari/go-multimodel-dispatch/internal/logger"
)

// Version is set at build time via ldflags
var Version = "dev"

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Details   map[string]string `json:"details,omitempty"`
}

// HealthHandler reports the gateway's readiness. The gateway is degraded when
// the orchestrator webhook is not configured or the history store is
// unreachable; it still serves requests in both cases, failing dispatches
// with a configuration error in the first.
// @Summary      Health check
// @Description  Returns the health of the gateway and its dependencies
// @Tags         health
// @Produce      json
// @Success      200  {object}  handlers.HealthResponse
// @Router       /health [get]
func (h *APIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithStage(logger.WithComponent(r.Context(), logger.ComponentNames.Handlers), logger.LogStages.HealthCheck)

	services := make(map[string]string)
	status := "healthy"

	if h.Settings.Orchestrator.Configured() {
		services["orchestrator"] = "configured"
	} else {
		services["orchestrator"] = "unconfigured"
		status = "degraded"
	}

	if h.Catalog != nil && h.Catalog.Size() > 0 {
		services["catalog"] = "up"
	} else {
		services["catalog"] = "down"
		status = "degraded"
	}

	switch {
	case h.History == nil:
		services["history"] = "disabled"
	case h.History.HealthCheck(ctx) == nil:
		services["history"] = "up"
	default:
		services["history"] = "unhealthy"
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Details: map[string]string{
			"version":        Version,
			"uptime_seconds": strconv.FormatInt(int64(time.Since(startTime).Seconds()), 10),
			"models":         strconv.Itoa(h.Catalog.Size()),
		},
	}

	writeJSON(w, http.StatusOK, response)
}

// HistoryHandler returns recent dispatch records, newest first
// @Summary      Recent dispatch history
// @Description  Returns the most recent persisted dispatch records. Responds 404 when history persistence is not enabled.
// @Tags         history
// @Produce      json
// @Param        limit  query  int  false  "Maximum records to return (1-100, default 20)"
// @Success      200  {array}   history.DispatchRecord
// @Failure      404  {object}  errors.ErrorResponse  "History not enabled"
// @Router       /v1/history [get]
func (h *APIHandlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierrors.HandleError(w, apierrors.NewValidationError("Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	if h.History == nil {
		apierrors.HandleAPIError(w, apierrors.NewNotFoundError("Dispatch history is not enabled"))
		return
	}

	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.History)

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apierrors.HandleAPIError(w, apierrors.NewValidationError("limit must be an integer"))
			return
		}
		limit = parsed
	}

	records, err := h.History.Recent(ctx, limit)
	if err != nil {
		logger.Error(ctx, "Failed to read dispatch history", err)
		apierrors.HandleAPIError(w, apierrors.NewInternalError("Failed to read dispatch history"))
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// HistoryRecordHandler returns one persisted dispatch by its dispatch ID
// @Summary      Look up one dispatch
// @Description  Returns the persisted record for one dispatch ID. Responds 404 when history is not enabled or no record exists.
// @Tags         history
// @Produce      json
// @Param        dispatchId  path  string  true  "Dispatch ID"
// @Success      200  {object}  history.DispatchRecord
// @Failure      404  {object}  errors.ErrorResponse  "History not enabled or record not found"
// @Router       /v1/history/{dispatchId} [get]
func (h *APIHandlers) HistoryRecordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierrors.HandleError(w, apierrors.NewValidationError("Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	if h.History == nil {
		apierrors.HandleAPIError(w, apierrors.NewNotFoundError("Dispatch history is not enabled"))
		return
	}

	dispatchID := r.PathValue("dispatchId")
	if dispatchID == "" {
		apierrors.HandleAPIError(w, apierrors.NewValidationError("dispatchId is required"))
		return
	}

	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.History)

	record, err := h.History.FindByDispatchID(ctx, dispatchID)
	if err != nil {
		logger.Error(ctx, "Failed to read dispatch record", err, "dispatch_id", dispatchID)
		apierrors.HandleAPIError(w, apierrors.NewInternalError("Failed to read dispatch record"))
		return
	}
	if record == nil {
		apierrors.HandleAPIError(w, apierrors.NewNotFoundError("No dispatch record for "+dispatchID))
		return
	}

	writeJSON(w, http.StatusOK, record)
}
