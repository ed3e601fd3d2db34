package orchestrator

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/aashari/go-multimodel-dispatch/internal/types"
)

// Normalize parses a raw orchestrator response body into the per-model result
// sequence, order as received. The canonical shape is an object with a
// "responses" array; an object keyed by model id and a bare array are also
// accepted, since upstream workflow revisions have produced both. Anything
// else is a ParseError.
//
// A record carrying an "error" field is a valid terminal result for that
// branch and never invalidates its siblings.
func Normalize(body []byte) ([]types.ModelResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Reason: "body is not valid JSON"}
	}

	root := gjson.ParseBytes(body)

	switch {
	case root.IsObject():
		responses := root.Get("responses")
		if responses.Exists() {
			if !responses.IsArray() {
				return nil, &ParseError{Reason: "'responses' field is not an array"}
			}
			return normalizeRecords(responses.Array())
		}
		return normalizeKeyedObject(root)
	case root.IsArray():
		return normalizeRecords(root.Array())
	default:
		return nil, &ParseError{Reason: "response must be a JSON object or array"}
	}
}

// normalizeRecords parses an ordered array of result records. Every record
// must name its model; a record that does not cannot be associated with a
// branch, which is a contract violation rather than a branch failure.
func normalizeRecords(records []gjson.Result) ([]types.ModelResult, error) {
	results := make([]types.ModelResult, 0, len(records))

	for i, rec := range records {
		if !rec.IsObject() {
			return nil, &ParseError{Reason: fmt.Sprintf("record %d is not an object", i)}
		}

		model := rec.Get("model").String()
		if model == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("record %d is missing 'model'", i)}
		}

		result, err := normalizeRecord(model, rec)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// normalizeKeyedObject parses the object-keyed shape {"<model>": {...}, ...},
// preserving document order.
func normalizeKeyedObject(root gjson.Result) ([]types.ModelResult, error) {
	var results []types.ModelResult
	var parseErr error

	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			parseErr = &ParseError{Reason: fmt.Sprintf("entry %q is not an object", key.String())}
			return false
		}

		result, err := normalizeRecord(key.String(), value)
		if err != nil {
			parseErr = err
			return false
		}
		results = append(results, result)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if len(results) == 0 {
		return nil, &ParseError{Reason: "response has no 'responses' field and no model entries"}
	}
	return results, nil
}

// normalizeRecord extracts one ModelResult, tolerating the field spellings the
// upstream workflow has emitted over time: response/text for the body and
// latencyMs/latency_ms/latency for the branch duration.
func normalizeRecord(model string, rec gjson.Result) (types.ModelResult, error) {
	response := rec.Get("response")
	if !response.Exists() {
		response = rec.Get("text")
	}

	latency := rec.Get("latencyMs")
	if !latency.Exists() {
		latency = rec.Get("latency_ms")
	}
	if !latency.Exists() {
		latency = rec.Get("latency")
	}

	latencyMs := latency.Int()
	if latencyMs < 0 {
		return types.ModelResult{}, &ParseError{
			Reason: fmt.Sprintf("model %q reports negative latency %d", model, latencyMs),
		}
	}

	return types.ModelResult{
		Model:     model,
		Response:  response.String(),
		LatencyMs: latencyMs,
		Error:     rec.Get("error").String(),
	}, nil
}

// MissingModels returns the requested models absent from the result sequence,
// in requested order. A missing branch is a terminal outcome equivalent to an
// explicit per-entry error; callers must not assume completeness.
func MissingModels(requested []string, results []types.ModelResult) []string {
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.Model] = true
	}

	var missing []string
	for _, model := range requested {
		if !seen[model] {
			missing = append(missing, model)
		}
	}
	return missing
}
