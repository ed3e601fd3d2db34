// Package validator checks inbound dispatch submissions before they reach the
// orchestrator client.
package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/aashari/go-multimodel-dispatch/internal/errors"
	"github.com/aashari/go-multimodel-dispatch/internal/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateDispatchRequest validates a submission: the input type must be one
// of the enumerated tags, the model set non-empty and drawn from the fixed
// identifier set, and non-text submissions must carry a file payload. A text
// submission with a stray payload is accepted; the orchestrator ignores it.
func ValidateDispatchRequest(req *types.DispatchRequest) *apierrors.APIError {
	if req == nil {
		return apierrors.NewValidationError("Request must not be empty")
	}

	if err := validate.Struct(req); err != nil {
		return formatFieldErrors(err)
	}

	if req.InputType != types.InputTypeText && !req.HasPayload() {
		return apierrors.NewValidationError(
			fmt.Sprintf("Input type %q requires a file payload", req.InputType))
	}

	if req.InputType == types.InputTypeText && strings.TrimSpace(req.Prompt) == "" {
		return apierrors.NewValidationError("Text submission requires a prompt")
	}

	return nil
}

// formatFieldErrors converts validator field errors into one APIError
func formatFieldErrors(err error) *apierrors.APIError {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.NewValidationError(fmt.Sprintf("Invalid request: %v", err))
	}

	var fields []string
	for _, fieldErr := range validationErrors {
		switch {
		case fieldErr.Field() == "InputType":
			fields = append(fields, "inputType must be one of text, image, audio")
		case fieldErr.Field() == "Models" && fieldErr.Tag() == "unique":
			fields = append(fields, "models must not contain duplicates")
		case fieldErr.Field() == "Models":
			fields = append(fields, "models must be a non-empty list")
		case strings.HasPrefix(fieldErr.Field(), "Models["):
			fields = append(fields, fmt.Sprintf("unknown model %v", fieldErr.Value()))
		default:
			fields = append(fields, fmt.Sprintf("%s failed %s validation", fieldErr.Field(), fieldErr.Tag()))
		}
	}

	return apierrors.NewAPIErrorWithDetails(
		apierrors.ErrorTypeValidation,
		"Invalid dispatch request",
		strings.Join(fields, "; "),
	)
}
