package config

import (
	"fmt"
	"time"

	"github.com/aashari/go-multimodel-dispatch/internal/utils"
)

// Settings represents the complete application configuration
type Settings struct {
	Server       ServerSettings
	Orchestrator OrchestratorSettings
}

// ServerSettings holds the HTTP server configuration
type ServerSettings struct {
	Host         string        `validate:"required"`
	Port         int           `validate:"required,min=1,max=65535"`
	ReadTimeout  time.Duration `validate:"required"`
	WriteTimeout time.Duration `validate:"required"`
	IdleTimeout  time.Duration `validate:"required"`
}

// OrchestratorSettings holds the external orchestrator webhook configuration.
// WebhookURL may be empty at startup: the service still serves the catalog
// and health endpoints, and the dispatcher fails fast on submission.
type OrchestratorSettings struct {
	WebhookURL string `validate:"omitempty,url"`

	// JSONTimeout bounds text submissions; BinaryTimeout bounds file uploads,
	// which the webhook forwards to slower transcription/vision branches.
	JSONTimeout   time.Duration `validate:"required"`
	BinaryTimeout time.Duration `validate:"required"`
}

// Addr returns the listen address for the HTTP server
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Configured reports whether the orchestrator endpoint is set
func (o OrchestratorSettings) Configured() bool {
	return o.WebhookURL != ""
}

// Load builds Settings from the process environment. The webhook URL is the
// one required external value and is intentionally never given a default.
func Load() (*Settings, error) {
	settings := &Settings{
		Server: ServerSettings{
			Host:         utils.GetEnvString("SERVER_HOST", "0.0.0.0"),
			Port:         utils.GetEnvPort("SERVER_PORT", 8082),
			ReadTimeout:  utils.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: utils.GetEnvDuration("SERVER_WRITE_TIMEOUT", 330*time.Second),
			IdleTimeout:  utils.GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Orchestrator: OrchestratorSettings{
			WebhookURL:    utils.GetEnvString("WEBHOOK_URL", ""),
			JSONTimeout:   utils.GetEnvDuration("DISPATCH_JSON_TIMEOUT", 180*time.Second),
			BinaryTimeout: utils.GetEnvDuration("DISPATCH_BINARY_TIMEOUT", 300*time.Second),
		},
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}
