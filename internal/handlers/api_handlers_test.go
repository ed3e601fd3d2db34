package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aashari/go-multimodel-dispatch/internal/catalog"
	"github.com/aashari/go-multimodel-dispatch/internal/config"
	apierrors "github.com/aashari/go-multimodel-dispatch/internal/errors"
	"github.com/aashari/go-multimodel-dispatch/internal/logger"
	"github.com/aashari/go-multimodel-dispatch/internal/orchestrator"
	"github.com/aashari/go-multimodel-dispatch/internal/types"
)

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	// Initialize logger for all tests
	if err := logger.Init(logger.DefaultConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	m.Run()
}

// stubOrchestrator returns canned results or an error, and records the
// submission it received
type stubOrchestrator struct {
	results []types.ModelResult
	err     error
	lastReq *types.DispatchRequest
}

func (s *stubOrchestrator) Dispatch(ctx context.Context, req *types.DispatchRequest) ([]types.ModelResult, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func testSettings() *config.Settings {
	return &config.Settings{
		Server: config.ServerSettings{Host: "127.0.0.1", Port: 8082},
		Orchestrator: config.OrchestratorSettings{
			WebhookURL:    "https://orchestrator.example.com/webhook/dispatch",
			JSONTimeout:   180 * time.Second,
			BinaryTimeout: 300 * time.Second,
		},
	}
}

func newTestHandlers(stub *stubOrchestrator) *APIHandlers {
	return NewAPIHandlers(testSettings(), catalog.Default(), stub, nil)
}

func postJSON(t *testing.T, h *APIHandlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.DispatchHandler(w, req)
	return w
}

func decodeDispatchResponse(t *testing.T, w *httptest.ResponseRecorder) types.DispatchResponse {
	t.Helper()
	var resp types.DispatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDispatchHandler_TextSuccess(t *testing.T) {
	stub := &stubOrchestrator{
		results: []types.ModelResult{
			{Model: "gpt4o", Response: "Hello!", LatencyMs: 1432},
			{Model: "gpt4o-mini", Response: "Hi", LatencyMs: 820},
		},
	}
	h := newTestHandlers(stub)

	w := postJSON(t, h, `{"prompt": "say hello", "inputType": "text", "models": ["gpt4o", "gpt4o-mini"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeDispatchResponse(t, w)

	assert.NotEmpty(t, resp.DispatchID)
	require.Len(t, resp.Results, 2)
	assert.Empty(t, resp.Missing)

	assert.Equal(t, "gpt4o", resp.Results[0].Model)
	assert.Equal(t, "GPT-4o", resp.Results[0].Title)
	assert.Equal(t, types.EntryStatusOK, resp.Results[0].Status)
	assert.Equal(t, "Hello!", resp.Results[0].Response)
	assert.Equal(t, int64(1432), resp.Results[0].LatencyMs)

	// The handler must pass the submission through unaltered
	require.NotNil(t, stub.lastReq)
	assert.Equal(t, "say hello", stub.lastReq.Prompt)
	assert.Equal(t, []string{"gpt4o", "gpt4o-mini"}, stub.lastReq.Models)
}

func TestDispatchHandler_PartialFailureKeepsSiblings(t *testing.T) {
	stub := &stubOrchestrator{
		results: []types.ModelResult{
			{Model: "gpt4o", Response: "fine", LatencyMs: 100},
			{Model: "whisper", Error: "branch exploded", LatencyMs: 40},
		},
	}
	h := newTestHandlers(stub)

	w := postJSON(t, h, `{"prompt": "hi", "inputType": "text", "models": ["gpt4o", "whisper"]}`)

	require.Equal(t, http.StatusOK, w.Code, "a failed branch must not fail the dispatch")
	resp := decodeDispatchResponse(t, w)
	require.Len(t, resp.Results, 2)

	assert.Equal(t, types.EntryStatusOK, resp.Results[0].Status)
	assert.Equal(t, types.EntryStatusError, resp.Results[1].Status)
	assert.Equal(t, "branch exploded", resp.Results[1].Error)
	assert.Empty(t, resp.Results[1].Response)
}

func TestDispatchHandler_MissingModelsReported(t *testing.T) {
	stub := &stubOrchestrator{
		results: []types.ModelResult{{Model: "gpt4o", Response: "only me", LatencyMs: 10}},
	}
	h := newTestHandlers(stub)

	w := postJSON(t, h, `{"prompt": "hi", "inputType": "text", "models": ["gpt4o", "gpt4o-mini"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeDispatchResponse(t, w)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, []string{"gpt4o-mini"}, resp.Missing)
}

func TestDispatchHandler_ValidationFailure(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	tests := []struct {
		name string
		body string
	}{
		{"empty models", `{"prompt": "hi", "inputType": "text", "models": []}`},
		{"unknown model", `{"prompt": "hi", "inputType": "text", "models": ["gpt9"]}`},
		{"bad input type", `{"prompt": "hi", "inputType": "video", "models": ["gpt4o"]}`},
		{"blank prompt", `{"prompt": " ", "inputType": "text", "models": ["gpt4o"]}`},
		{"not json", `prompt=hi`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			resp := decodeErrorResponse(t, w)
			assert.Equal(t, apierrors.ErrorTypeValidation, resp.Error.Type)
		})
	}
}

func TestDispatchHandler_ConfigurationErrorMapsTo503(t *testing.T) {
	stub := &stubOrchestrator{err: apierrors.NewConfigurationError("Orchestrator webhook URL is not configured")}
	h := newTestHandlers(stub)

	w := postJSON(t, h, `{"prompt": "hi", "inputType": "text", "models": ["gpt4o"]}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, apierrors.ErrorTypeConfiguration, resp.Error.Type)
}

func TestDispatchHandler_TransportErrorMapsTo502(t *testing.T) {
	stub := &stubOrchestrator{err: &orchestrator.TransportError{StatusCode: 500}}
	h := newTestHandlers(stub)

	w := postJSON(t, h, `{"prompt": "hi", "inputType": "text", "models": ["gpt4o"]}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, apierrors.ErrorTypeTransport, resp.Error.Type)
}

func TestDispatchHandler_TimeoutKeepsDistinctDetails(t *testing.T) {
	stub := &stubOrchestrator{err: &orchestrator.TransportError{Timeout: true}}
	h := newTestHandlers(stub)

	w := postJSON(t, h, `{"prompt": "hi", "inputType": "text", "models": ["gpt4o"]}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, apierrors.ErrorTypeTransport, resp.Error.Type)
	assert.Contains(t, resp.Error.Message, "timed out")
}

func TestDispatchHandler_ParseErrorMapsTo502(t *testing.T) {
	stub := &stubOrchestrator{err: &orchestrator.ParseError{Reason: "body is not valid JSON"}}
	h := newTestHandlers(stub)

	w := postJSON(t, h, `{"prompt": "hi", "inputType": "text", "models": ["gpt4o"]}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, apierrors.ErrorTypeParse, resp.Error.Type)
}

func TestDispatchHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodGet, "/v1/dispatch", nil)
	w := httptest.NewRecorder()
	h.DispatchHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestDispatchHandler_MultipartImageSubmission(t *testing.T) {
	stub := &stubOrchestrator{
		results: []types.ModelResult{{Model: "gpt4o-vision", Response: "a dog", LatencyMs: 700}},
	}
	h := newTestHandlers(stub)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xFF, 0xD8, 0xFF})
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("prompt", "describe"))
	require.NoError(t, writer.WriteField("inputType", "image"))
	require.NoError(t, writer.WriteField("models", `["gpt4o-vision"]`))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/dispatch", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	h.DispatchHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeDispatchResponse(t, w)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a dog", resp.Results[0].Response)

	require.NotNil(t, stub.lastReq)
	assert.Equal(t, "image", stub.lastReq.InputType)
	assert.Equal(t, []string{"gpt4o-vision"}, stub.lastReq.Models)
	require.NotNil(t, stub.lastReq.Payload)
	assert.Equal(t, "photo.jpg", stub.lastReq.Payload.Filename)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, stub.lastReq.Payload.Data)
}

func TestDispatchHandler_MultipartWithoutFileRejected(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("prompt", "describe"))
	require.NoError(t, writer.WriteField("inputType", "image"))
	require.NoError(t, writer.WriteField("models", `["gpt4o-vision"]`))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/dispatch", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	h.DispatchHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, apierrors.ErrorTypeValidation, resp.Error.Type)
}

func TestModelsHandler(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	h.ModelsHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ModelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Models, 4)
	assert.Equal(t, "gpt4o", resp.Models[0].ID)
	assert.Equal(t, "GPT-4o", resp.Models[0].Title)
}

func TestModelsHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodPost, "/v1/models", nil)
	w := httptest.NewRecorder()
	h.ModelsHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthHandler_Healthy(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HealthHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "configured", resp.Services["orchestrator"])
	assert.Equal(t, "up", resp.Services["catalog"])
	assert.Equal(t, "disabled", resp.Services["history"])
}

func TestHealthHandler_DegradedWithoutWebhook(t *testing.T) {
	settings := testSettings()
	settings.Orchestrator.WebhookURL = ""
	h := NewAPIHandlers(settings, catalog.Default(), &stubOrchestrator{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HealthHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unconfigured", resp.Services["orchestrator"])
}

func TestHistoryRecordHandler_DisabledReturns404(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodGet, "/v1/history/disp_abc123", nil)
	req.SetPathValue("dispatchId", "disp_abc123")
	w := httptest.NewRecorder()
	h.HistoryRecordHandler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, apierrors.ErrorTypeNotFound, resp.Error.Type)
}

func TestHistoryRecordHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/history/disp_abc123", nil)
	req.SetPathValue("dispatchId", "disp_abc123")
	w := httptest.NewRecorder()
	h.HistoryRecordHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHistoryHandler_DisabledReturns404(t *testing.T) {
	h := newTestHandlers(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	w := httptest.NewRecorder()
	h.HistoryHandler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, apierrors.ErrorTypeNotFound, resp.Error.Type)
}
