// Package types defines the request/response shapes shared between the
// dispatch gateway and the external model orchestrator.
package types

// Input type tags for a dispatch submission
const (
	InputTypeText  = "text"
	InputTypeImage = "image"
	InputTypeAudio = "audio"
)

// Attachment carries the binary payload of a non-text submission
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DispatchRequest is one submission to the orchestrator: a prompt, an input
// type tag, the set of models to invoke, and an optional binary payload.
// Exactly one of Prompt or Payload is authoritative depending on InputType;
// the orchestrator ignores the other, but both may be sent.
type DispatchRequest struct {
	Prompt    string   `json:"prompt"`
	InputType string   `json:"inputType" validate:"required,oneof=text image audio"`
	Models    []string `json:"models" validate:"required,min=1,unique,dive,oneof=gpt4o gpt4o-mini whisper gpt4o-vision"`

	// Payload is transmitted as a file part or raw body, never inlined in JSON
	Payload *Attachment `json:"-"`
}

// HasPayload reports whether a binary attachment is present
func (r *DispatchRequest) HasPayload() bool {
	return r.Payload != nil && len(r.Payload.Data) > 0
}

// ModelResult is one per-model record from the orchestrator response. Error
// is present iff that model's branch failed; a model absent from the response
// entirely signals total failure for that branch.
type ModelResult struct {
	Model     string `json:"model"`
	Response  string `json:"response,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Failed reports whether this branch reported an error
func (r ModelResult) Failed() bool {
	return r.Error != ""
}

// Display entry status values
const (
	EntryStatusOK    = "ok"
	EntryStatusError = "error"
)

// DisplayEntry is one rendered result unit: model identity, response or error
// text, and the branch latency as measured by the orchestrator.
type DisplayEntry struct {
	Model     string `json:"model"`
	Title     string `json:"title,omitempty"`
	Status    string `json:"status"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// DispatchResponse is the gateway's projection of one aggregated submission.
// Missing lists requested models for which the orchestrator returned no
// record at all; those branches are terminal failures, same as an explicit
// per-entry error.
type DispatchResponse struct {
	DispatchID string         `json:"dispatchId"`
	ElapsedMs  int64          `json:"elapsedMs"`
	Results    []DisplayEntry `json:"results"`
	Missing    []string       `json:"missing,omitempty"`
}
