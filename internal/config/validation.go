package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aashari/go-multimodel-dispatch/internal/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateSettings validates the complete application configuration
func ValidateSettings(settings *Settings) *errors.APIError {
	if settings == nil {
		return errors.NewConfigurationError("Settings must not be nil")
	}

	if err := validate.Struct(settings.Server); err != nil {
		return formatValidationError("server", err)
	}

	if err := validate.Struct(settings.Orchestrator); err != nil {
		return formatValidationError("orchestrator", err)
	}

	if settings.Orchestrator.JSONTimeout <= 0 || settings.Orchestrator.BinaryTimeout <= 0 {
		return errors.NewConfigurationError("Dispatch timeouts must be positive")
	}

	return nil
}

// formatValidationError converts validator errors into a configuration error
func formatValidationError(section string, err error) *errors.APIError {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewConfigurationError(fmt.Sprintf("Invalid %s configuration: %v", section, err))
	}

	var fields []string
	for _, fieldErr := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Field(), fieldErr.Tag()))
	}

	return errors.NewAPIErrorWithDetails(
		errors.ErrorTypeConfiguration,
		fmt.Sprintf("Invalid %s configuration", section),
		strings.Join(fields, ", "),
	)
}
