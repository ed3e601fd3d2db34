// Package orchestrator dispatches submissions to the external model
// orchestrator webhook and aggregates its per-model results. The orchestrator
// itself is a black box: routing, fan-out, and model invocation happen behind
// a single HTTP endpoint, and the only contract is the request/response shape.
package orchestrator

import (
	"context"

	"github.com/aashari/go-multimodel-dispatch/internal/types"
)

// Orchestrator submits one DispatchRequest and returns the per-model results
// in the order the upstream system produced them. Implementations must
// preserve partial results: a failed branch is reported in its own record and
// never suppresses siblings.
type Orchestrator interface {
	Dispatch(ctx context.Context, req *types.DispatchRequest) ([]types.ModelResult, error)
}
