package main

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

	"github.com/aashari/go-multimodel-dispatch/internal/app"
	"github.com/aashari/go-multimodel-dispatch/internal/logger"
	"github.com/aashari/go-multimodel-dispatch/internal/types"
)

const testTimeout = 10 * time.Second

// TestServer bundles the gateway under test with its mock orchestrator
type TestServer struct {
	server       *httptest.Server
	orchestrator *httptest.Server
	httpClient   *http.Client
}

// setupTestServer starts a mock orchestrator webhook and a gateway pointed at it
func setupTestServer(t *testing.T, orchestratorHandler http.HandlerFunc) *TestServer {
	t.Helper()

	loggerConfig := logger.Config{
		Level:       logger.LevelDebug,
		Format:      "json",
		Output:      "stdout",
		ServiceName: "integration-test",
		Environment: "test",
	}
	if err := logger.Init(loggerConfig); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	orchestratorServer := httptest.NewServer(orchestratorHandler)
	t.Setenv("WEBHOOK_URL", orchestratorServer.URL)

	application, err := app.NewApp(context.Background())
	if err != nil {
		orchestratorServer.Close()
		t.Fatalf("Failed to create app: %v", err)
	}

	server := httptest.NewServer(application.SetupRoutes())

	ts := &TestServer{
		server:       server,
		orchestrator: orchestratorServer,
		httpClient:   &http.Client{Timeout: testTimeout},
	}

	t.Cleanup(func() {
		server.Close()
		orchestratorServer.Close()
	})

	return ts
}

// echoOrchestrator answers every dispatch with one entry per requested model
func echoOrchestrator(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DispatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		entries := make([]map[string]interface{}, 0, len(req.Models))
		for i, model := range req.Models {
			entries = append(entries, map[string]interface{}{
				"model":     model,
				"response":  "echo: " + req.Prompt,
				"latencyMs": 100 * (i + 1),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"responses": entries})
	}
}

func TestIntegration_TextDispatchEndToEnd(t *testing.T) {
	ts := setupTestServer(t, echoOrchestrator(t))

	body := `{"prompt": "hello", "inputType": "text", "models": ["gpt4o", "gpt4o-mini"]}`
	resp, err := ts.httpClient.Post(ts.server.URL+"/v1/dispatch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var dispatchResp types.DispatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dispatchResp))

	assert.True(t, strings.HasPrefix(dispatchResp.DispatchID, "disp_"))
	require.Len(t, dispatchResp.Results, 2)
	assert.Empty(t, dispatchResp.Missing)

	assert.Equal(t, "gpt4o", dispatchResp.Results[0].Model)
	assert.Equal(t, "GPT-4o", dispatchResp.Results[0].Title)
	assert.Equal(t, "echo: hello", dispatchResp.Results[0].Response)
	assert.Equal(t, int64(100), dispatchResp.Results[0].LatencyMs)
	assert.Equal(t, types.EntryStatusOK, dispatchResp.Results[0].Status)
}

func TestIntegration_PartialFailureSurfacedPerEntry(t *testing.T) {
	ts := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"responses": [
				{"model": "gpt4o", "response": "fine", "latencyMs": 80},
				{"model": "whisper", "error": "upstream exploded", "latencyMs": 20}
			]
		}`))
	})

	body := `{"prompt": "hello", "inputType": "text", "models": ["gpt4o", "whisper", "gpt4o-mini"]}`
	resp, err := ts.httpClient.Post(ts.server.URL+"/v1/dispatch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dispatchResp types.DispatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dispatchResp))

	require.Len(t, dispatchResp.Results, 2)
	assert.Equal(t, types.EntryStatusOK, dispatchResp.Results[0].Status)
	assert.Equal(t, types.EntryStatusError, dispatchResp.Results[1].Status)
	assert.Equal(t, "upstream exploded", dispatchResp.Results[1].Error)

	// The model with no record at all is reported missing, not dropped silently
	assert.Equal(t, []string{"gpt4o-mini"}, dispatchResp.Missing)
}

func TestIntegration_ImageDispatchMultipart(t *testing.T) {
	var sawFile bool
	ts := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		sawFile = header.Filename == "pic.png"

		_, _ = w.Write([]byte(`{"responses": [{"model": "gpt4o-vision", "response": "a bridge", "latencyMs": 500}]}`))
	})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "pic.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 0x50, 0x4E, 0x47})
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("prompt", "what is this?"))
	require.NoError(t, writer.WriteField("inputType", "image"))
	require.NoError(t, writer.WriteField("models", `["gpt4o-vision"]`))
	require.NoError(t, writer.Close())

	resp, err := ts.httpClient.Post(ts.server.URL+"/v1/dispatch", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, sawFile, "file part must reach the orchestrator")

	var dispatchResp types.DispatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dispatchResp))
	require.Len(t, dispatchResp.Results, 1)
	assert.Equal(t, "a bridge", dispatchResp.Results[0].Response)
}

func TestIntegration_OrchestratorFailureMapsToBadGateway(t *testing.T) {
	ts := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow error", http.StatusInternalServerError)
	})

	body := `{"prompt": "hello", "inputType": "text", "models": ["gpt4o"]}`
	resp, err := ts.httpClient.Post(ts.server.URL+"/v1/dispatch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestIntegration_HealthAndModels(t *testing.T) {
	ts := setupTestServer(t, echoOrchestrator(t))

	resp, err := ts.httpClient.Get(ts.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])

	modelsResp, err := ts.httpClient.Get(ts.server.URL + "/v1/models")
	require.NoError(t, err)
	defer modelsResp.Body.Close()
	assert.Equal(t, http.StatusOK, modelsResp.StatusCode)
}
