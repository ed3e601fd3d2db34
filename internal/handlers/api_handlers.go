package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aashari/go-multimodel-dispatch/internal/catalog"
	"github.com/aashari/go-multimodel-dispatch/internal/config"
	apierrors "github.com/aashari/go-multimodel-dispatch/internal/errors"
	"github.com/aashari/go-multimodel-dispatch/internal/history"
	"github.com/aashari/go-multimodel-dispatch/internal/logger"
	"github.com/aashari/go-multimodel-dispatch/internal/monitoring"
	"github.com/aashari/go-multimodel-dispatch/internal/orchestrator"
	"github.com/aashari/go-multimodel-dispatch/internal/types"
	"github.com/aashari/go-multimodel-dispatch/internal/utils"
	"github.com/aashari/go-multimodel-dispatch/internal/validator"
)

// startTime tracks when the application started
var startTime = time.Now()

// maxUploadBytes bounds multipart and raw file submissions (32 MiB)
const maxUploadBytes = 32 << 20

// APIHandlers contains the dependencies needed for API handlers
type APIHandlers struct {
	Settings     *config.Settings
	Catalog      *catalog.Catalog
	Orchestrator orchestrator.Orchestrator
	History      *history.Store // nil when history is disabled
}

// NewAPIHandlers creates a new APIHandlers instance
func NewAPIHandlers(settings *config.Settings, cat *catalog.Catalog, orch orchestrator.Orchestrator, store *history.Store) *APIHandlers {
	return &APIHandlers{
		Settings:     settings,
		Catalog:      cat,
		Orchestrator: orch,
		History:      store,
	}
}

// ModelsResponse is the catalog listing payload
type ModelsResponse struct {
	Models []catalog.ModelInfo `json:"models"`
}

// ModelsHandler lists the dispatchable model catalog
// @Summary      List available models
// @Description  Returns the fixed catalog of dispatchable models with display metadata
// @Tags         models
// @Produce      json
// @Success      200  {object}  handlers.ModelsResponse
// @Router       /v1/models [get]
func (h *APIHandlers) ModelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierrors.HandleError(w, apierrors.NewValidationError("Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, ModelsResponse{Models: h.Catalog.List()})
}

// DispatchHandler accepts one submission, forwards it to the orchestrator,
// and returns the aggregated per-model results.
//
// A JSON body carries a text submission; a multipart body carries an image or
// audio submission with the file in the "file" part and the request fields as
// form values (models JSON-encoded, matching the original client).
//
// @Summary      Dispatch a prompt to selected models
// @Description  Sends a prompt (and optional file) to the orchestrator webhook and returns one result per model branch. A failed branch is reported in its own entry and never suppresses sibling results.
// @Tags         dispatch
// @Accept       json,mpfd
// @Produce      json
// @Success      200  {object}  types.DispatchResponse
// @Failure      400  {object}  errors.ErrorResponse  "Invalid submission"
// @Failure      502  {object}  errors.ErrorResponse  "Transport or contract failure"
// @Failure      503  {object}  errors.ErrorResponse  "Orchestrator not configured"
// @Router       /v1/dispatch [post]
func (h *APIHandlers) DispatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apierrors.HandleError(w, apierrors.NewValidationError("Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.Handlers)

	req, apiErr := h.parseSubmission(r)
	if apiErr != nil {
		apierrors.HandleAPIError(w, apiErr)
		return
	}

	if apiErr := validator.ValidateDispatchRequest(req); apiErr != nil {
		logger.Warn(logger.WithStage(ctx, logger.LogStages.Validation),
			"Rejected dispatch submission",
			"reason", apiErr.Message,
			"details", apiErr.Details,
		)
		apierrors.HandleAPIError(w, apiErr)
		return
	}

	dispatchID := utils.GenerateDispatchID()
	monitoring.GetMetrics().RecordDispatch()

	start := time.Now()
	results, err := h.Orchestrator.Dispatch(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		apiErr := mapDispatchError(err)
		h.recordFailure(ctx, dispatchID, req, apiErr, elapsed)
		apierrors.HandleAPIError(w, apiErr)
		return
	}

	response := h.buildResponse(dispatchID, req, results, elapsed)
	h.recordSuccess(ctx, dispatchID, req, results, response, elapsed)

	writeJSON(w, http.StatusOK, response)
}

// buildResponse projects the aggregated results into display entries. Every
// received record is delivered: entries with a per-model error are flagged,
// never dropped, and requested models with no record at all are listed as
// missing.
func (h *APIHandlers) buildResponse(dispatchID string, req *types.DispatchRequest, results []types.ModelResult, elapsed time.Duration) *types.DispatchResponse {
	metrics := monitoring.GetMetrics()

	entries := make([]types.DisplayEntry, 0, len(results))
	for _, result := range results {
		entry := types.DisplayEntry{
			Model:     result.Model,
			Title:     h.Catalog.TitleFor(result.Model),
			Status:    types.EntryStatusOK,
			Response:  result.Response,
			LatencyMs: result.LatencyMs,
		}
		if result.Failed() {
			entry.Status = types.EntryStatusError
			entry.Error = result.Error
			entry.Response = ""
		}
		entries = append(entries, entry)
		metrics.RecordBranch(result.Model, result.Failed(), result.LatencyMs)
	}

	missing := orchestrator.MissingModels(req.Models, results)
	for _, model := range missing {
		metrics.RecordMissingBranch(model)
	}

	return &types.DispatchResponse{
		DispatchID: dispatchID,
		ElapsedMs:  elapsed.Milliseconds(),
		Results:    entries,
		Missing:    missing,
	}
}

// parseSubmission decodes the inbound request body into a DispatchRequest
func (h *APIHandlers) parseSubmission(r *http.Request) (*types.DispatchRequest, *apierrors.APIError) {
	contentType := r.Header.Get(utils.HeaderContentType)

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return parseMultipartSubmission(r)
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apierrors.NewValidationError("Failed to read request body")
	}

	var req types.DispatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apierrors.NewValidationError("Request body is not valid JSON")
	}

	return &req, nil
}

// parseMultipartSubmission decodes a file submission: form fields prompt,
// inputType, and models (JSON-encoded array or repeated values), plus the
// binary payload in the "file" part.
func parseMultipartSubmission(r *http.Request) (*types.DispatchRequest, *apierrors.APIError) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, apierrors.NewValidationError("Failed to parse multipart form")
	}

	req := &types.DispatchRequest{
		Prompt:    r.FormValue("prompt"),
		InputType: r.FormValue("inputType"),
		Models:    parseModelsField(r),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return req, nil // validator reports the missing payload
		}
		return nil, apierrors.NewValidationError("Failed to read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apierrors.NewValidationError("Failed to read uploaded file")
	}

	req.Payload = &types.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get(utils.HeaderContentType),
		Data:        data,
	}

	return req, nil
}

// parseModelsField accepts either a JSON-encoded array in a single "models"
// value (what the original client sends) or repeated form values.
func parseModelsField(r *http.Request) []string {
	values := r.Form["models"]
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var models []string
		if err := json.Unmarshal([]byte(values[0]), &models); err == nil {
			return models
		}
	}
	return values
}

// mapDispatchError converts orchestrator failures into the API error taxonomy
func mapDispatchError(err error) *apierrors.APIError {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var transportErr *orchestrator.TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Timeout {
			return apierrors.NewAPIErrorWithDetails(apierrors.ErrorTypeTransport,
				"Orchestrator request timed out", transportErr.Error())
		}
		return apierrors.NewTransportError(transportErr.Error())
	}

	var parseErr *orchestrator.ParseError
	if errors.As(err, &parseErr) {
		return apierrors.NewParseError(parseErr.Error())
	}

	return apierrors.NewInternalError(err.Error())
}

// recordSuccess persists a completed dispatch; the write is detached and a
// failure only logs, since history must never block or fail a dispatch.
func (h *APIHandlers) recordSuccess(ctx context.Context, dispatchID string, req *types.DispatchRequest, results []types.ModelResult, response *types.DispatchResponse, elapsed time.Duration) {
	if h.History == nil {
		return
	}

	status := history.RecordStatusOK
	if len(response.Missing) > 0 || anyFailed(results) {
		status = history.RecordStatusPartial
	}

	record := &history.DispatchRecord{
		DispatchID:  dispatchID,
		RequestID:   requestIDFrom(ctx),
		InputType:   req.InputType,
		Models:      req.Models,
		HasFile:     req.HasPayload(),
		Status:      status,
		Results:     results,
		Missing:     response.Missing,
		ElapsedMs:   elapsed.Milliseconds(),
		Environment: os.Getenv("ENVIRONMENT"),
		RequestedAt: time.Now().Add(-elapsed),
	}

	h.insertRecord(record)
}

// recordFailure persists a dispatch that failed before any result arrived
func (h *APIHandlers) recordFailure(ctx context.Context, dispatchID string, req *types.DispatchRequest, apiErr *apierrors.APIError, elapsed time.Duration) {
	if h.History == nil {
		return
	}

	record := &history.DispatchRecord{
		DispatchID:   dispatchID,
		RequestID:    requestIDFrom(ctx),
		InputType:    req.InputType,
		Models:       req.Models,
		HasFile:      req.HasPayload(),
		Status:       history.RecordStatusFailed,
		ErrorType:    string(apiErr.Type),
		ErrorMessage: apiErr.Message,
		ElapsedMs:    elapsed.Milliseconds(),
		Environment:  os.Getenv("ENVIRONMENT"),
		RequestedAt:  time.Now().Add(-elapsed),
	}

	h.insertRecord(record)
}

func (h *APIHandlers) insertRecord(record *history.DispatchRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		ctx = logger.WithComponent(ctx, logger.ComponentNames.History)
		if err := h.History.Insert(ctx, record); err != nil {
			logger.Warn(logger.WithStage(ctx, logger.LogStages.HistoryWrite),
				"Failed to persist dispatch record",
				"dispatch_id", record.DispatchID,
				"error_detail", err.Error(),
			)
		}
	}()
}

func anyFailed(results []types.ModelResult) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// writeJSON marshals and sends a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error(context.Background(), "Failed to encode response", err)
	}
}
