package history

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aashari/go-multimodel-dispatch/internal/types"
)

// DispatchRecord is one persisted submission: what was asked, what came back,
// and how long each branch took. Stored for analytics only; the dispatch path
// never reads it back.
type DispatchRecord struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	DispatchID string `bson:"dispatch_id" json:"dispatch_id"`
	RequestID  string `bson:"request_id,omitempty" json:"request_id,omitempty"`

	// Request details
	InputType string   `bson:"input_type" json:"input_type"`
	Models    []string `bson:"models" json:"models"`
	HasFile   bool     `bson:"has_file" json:"has_file"`

	// Outcome details
	Status       string              `bson:"status" json:"status"`
	Results      []types.ModelResult `bson:"results,omitempty" json:"results,omitempty"`
	Missing      []string            `bson:"missing,omitempty" json:"missing,omitempty"`
	ErrorType    string              `bson:"error_type,omitempty" json:"error_type,omitempty"`
	ErrorMessage string              `bson:"error_message,omitempty" json:"error_message,omitempty"`
	ElapsedMs    int64               `bson:"elapsed_ms" json:"elapsed_ms"`

	// Metadata
	Environment string    `bson:"environment" json:"environment"`
	RequestedAt time.Time `bson:"requested_at" json:"requested_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Record status values
const (
	RecordStatusOK      = "ok"
	RecordStatusPartial = "partial"
	RecordStatusFailed  = "failed"
)
