package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"time"

	"github.com/aashari/go-multimodel-dispatch/internal/config"
	apierrors "github.com/aashari/go-multimodel-dispatch/internal/errors"
	"github.com/aashari/go-multimodel-dispatch/internal/logger"
	"github.com/aashari/go-multimodel-dispatch/internal/types"
	"github.com/aashari/go-multimodel-dispatch/internal/utils"
)

// WebhookClient is the HTTP Orchestrator implementation. One submission
// produces exactly one outbound POST to the configured webhook; fan-out
// across models happens on the far side.
type WebhookClient struct {
	settings   config.OrchestratorSettings
	httpClient *http.Client
}

// NewWebhookClient creates a webhook client. Deadlines are applied per call
// via context, since text and binary submissions carry different timeouts.
func NewWebhookClient(settings config.OrchestratorSettings) *WebhookClient {
	return &WebhookClient{
		settings: settings,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Dispatch sends one DispatchRequest to the orchestrator and returns the
// aggregated per-model results. Failure modes are kept distinct: a missing
// endpoint is a configuration error raised before any network I/O, transport
// failures (including timeout and non-2xx) carry no partial results, and a
// malformed body is a ParseError signalling a violated contract.
func (c *WebhookClient) Dispatch(ctx context.Context, req *types.DispatchRequest) ([]types.ModelResult, error) {
	if !c.settings.Configured() {
		return nil, apierrors.NewConfigurationError("Orchestrator webhook URL is not configured")
	}

	httpReq, timeout, err := c.buildRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	httpReq = httpReq.WithContext(ctx)

	logger.Info(ctx, "Dispatching to orchestrator",
		"url", c.settings.WebhookURL,
		"input_type", req.InputType,
		"models", req.Models,
		"payload_bytes", payloadSize(req),
		"timeout", timeout.String(),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)

	if err != nil {
		te := classifyTransportError(err)
		logger.Error(ctx, "Orchestrator communication failed", te,
			"url", c.settings.WebhookURL,
			"elapsed_ms", elapsed.Milliseconds(),
			"timeout", te.Timeout,
		)
		return nil, te
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn(ctx, "Orchestrator returned error status",
			"url", c.settings.WebhookURL,
			"status_code", resp.StatusCode,
			"elapsed_ms", elapsed.Milliseconds(),
		)
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	results, err := Normalize(body)
	if err != nil {
		logger.Error(ctx, "Orchestrator response violated contract", err,
			"url", c.settings.WebhookURL,
			"body_bytes", len(body),
		)
		return nil, err
	}

	logger.Info(ctx, "Orchestrator dispatch completed",
		"elapsed_ms", elapsed.Milliseconds(),
		"result_count", len(results),
	)

	return results, nil
}

// buildRequest constructs the outbound POST for the submission's transmission
// mode. Text goes as a JSON body; image as a multipart file with the request
// fields as form values; audio as raw unencoded bytes with the request fields
// carried in metadata headers. The modes match what the workflow's webhook
// node expects for each branch.
func (c *WebhookClient) buildRequest(req *types.DispatchRequest) (*http.Request, time.Duration, error) {
	switch req.InputType {
	case types.InputTypeText:
		return c.buildJSONRequest(req)
	case types.InputTypeImage:
		return c.buildMultipartRequest(req)
	case types.InputTypeAudio:
		return c.buildBinaryRequest(req)
	default:
		return nil, 0, apierrors.NewValidationError(fmt.Sprintf("Unsupported input type %q", req.InputType))
	}
}

func (c *WebhookClient) buildJSONRequest(req *types.DispatchRequest) (*http.Request, time.Duration, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to encode dispatch request: %v", err))
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.settings.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to build dispatch request: %v", err))
	}
	httpReq.Header.Set(utils.HeaderContentType, utils.ContentTypeJSON)

	return httpReq, c.settings.JSONTimeout, nil
}

func (c *WebhookClient) buildMultipartRequest(req *types.DispatchRequest) (*http.Request, time.Duration, error) {
	if !req.HasPayload() {
		return nil, 0, apierrors.NewValidationError("Image submission requires a file payload")
	}

	modelsJSON, err := json.Marshal(req.Models)
	if err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to encode model set: %v", err))
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, req.Payload.Filename))
	partHeader.Set(utils.HeaderContentType, payloadContentType(req.Payload))

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to build multipart body: %v", err))
	}
	if _, err := part.Write(req.Payload.Data); err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to write file part: %v", err))
	}

	fields := map[string]string{
		"models":    string(modelsJSON),
		"inputType": req.InputType,
		"prompt":    req.Prompt,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to write form field %s: %v", name, err))
		}
	}

	if err := writer.Close(); err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to finalize multipart body: %v", err))
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.settings.WebhookURL, &buf)
	if err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to build dispatch request: %v", err))
	}
	httpReq.Header.Set(utils.HeaderContentType, writer.FormDataContentType())

	return httpReq, c.settings.BinaryTimeout, nil
}

func (c *WebhookClient) buildBinaryRequest(req *types.DispatchRequest) (*http.Request, time.Duration, error) {
	if !req.HasPayload() {
		return nil, 0, apierrors.NewValidationError("Audio submission requires a file payload")
	}

	modelsJSON, err := json.Marshal(req.Models)
	if err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to encode model set: %v", err))
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.settings.WebhookURL, bytes.NewReader(req.Payload.Data))
	if err != nil {
		return nil, 0, apierrors.NewInternalError(fmt.Sprintf("Failed to build dispatch request: %v", err))
	}

	httpReq.Header.Set(utils.HeaderContentType, payloadContentType(req.Payload))
	httpReq.Header.Set(utils.HeaderFilename, req.Payload.Filename)
	httpReq.Header.Set(utils.HeaderModels, string(modelsJSON))
	httpReq.Header.Set(utils.HeaderInputType, req.InputType)
	httpReq.Header.Set(utils.HeaderPrompt, req.Prompt)

	return httpReq, c.settings.BinaryTimeout, nil
}

// classifyTransportError separates timeouts from other transport failures so
// callers can report them as distinct kinds.
func classifyTransportError(err error) *TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Timeout: true, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Timeout: true, Err: err}
	}

	return &TransportError{Err: err}
}

func payloadContentType(p *types.Attachment) string {
	if p.ContentType != "" {
		return p.ContentType
	}
	return utils.ContentTypeOctetStream
}

func payloadSize(req *types.DispatchRequest) int {
	if req.Payload == nil {
		return 0
	}
	return len(req.Payload.Data)
}
