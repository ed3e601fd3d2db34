package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aashari/go-multimodel-dispatch/internal/logger"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeConfiguration ErrorType = "configuration_error"
	ErrorTypeTransport     ErrorType = "transport_error"
	ErrorTypeParse         ErrorType = "parse_error"
	ErrorTypeNotFound      ErrorType = "not_found_error"
	ErrorTypeInternal      ErrorType = "internal_error"
)

// APIError represents a structured API error
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse represents the JSON error response format
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError creates a new APIError
func NewAPIError(errorType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(errorType ErrorType, message, details string) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
		Details: details,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *APIError {
	return NewAPIError(ErrorTypeValidation, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *APIError {
	return NewAPIError(ErrorTypeConfiguration, message)
}

// NewTransportError creates a transport error
func NewTransportError(message string) *APIError {
	return NewAPIError(ErrorTypeTransport, message)
}

// NewParseError creates a parse error
func NewParseError(message string) *APIError {
	return NewAPIError(ErrorTypeParse, message)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *APIError {
	return NewAPIError(ErrorTypeNotFound, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *APIError {
	return NewAPIError(ErrorTypeInternal, message)
}

// StatusForType maps an error type to its HTTP status code
func StatusForType(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeConfiguration:
		return http.StatusServiceUnavailable
	case ErrorTypeTransport, ErrorTypeParse:
		return http.StatusBadGateway
	case ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes a standardized error response to the HTTP response writer
func HandleError(w http.ResponseWriter, err error, statusCode int) {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		apiError = inferErrorType(err, statusCode)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: *apiError}

	if jsonBytes, jsonErr := json.Marshal(response); jsonErr == nil {
		w.Write(jsonBytes)
	} else {
		w.Write([]byte(`{"error":{"type":"internal_error","message":"Internal server error"}}`))
	}

	logger.Error(context.Background(), "API error response",
		err,
		"status_code", statusCode,
		"error_type", string(apiError.Type),
	)
}

// HandleAPIError writes an APIError using its type's canonical status code
func HandleAPIError(w http.ResponseWriter, apiError *APIError) {
	HandleError(w, apiError, StatusForType(apiError.Type))
}

// inferErrorType attempts to infer the error type based on the status code
func inferErrorType(err error, statusCode int) *APIError {
	message := err.Error()

	switch statusCode {
	case http.StatusBadRequest:
		return NewValidationError(message)
	case http.StatusNotFound:
		return NewNotFoundError(message)
	case http.StatusServiceUnavailable:
		return NewConfigurationError(message)
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return NewTransportError(message)
	default:
		return NewInternalError(message)
	}
}
