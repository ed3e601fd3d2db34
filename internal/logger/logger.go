package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aashari/go-multimodel-dispatch/internal/utils"
)

// Logger levels
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Context keys
type contextKey string

const (
	RequestIDKey     contextKey = "request_id"
	CorrelationIDKey contextKey = "correlation_id"
	ComponentKey     contextKey = "component"
	StageKey         contextKey = "stage"
)

// Global logger instance
var Logger *slog.Logger

// Service configuration
var (
	ServiceName = "multimodel-dispatch"
	Environment = "development"
)

// Config holds logger configuration
type Config struct {
	Level       slog.Level
	Format      string // "json" or "text"
	Output      string // "stdout", "stderr", or file path
	ServiceName string
	Environment string
}

// DefaultConfig is the configuration used when none is provided
var DefaultConfig = Config{
	Level:       LevelInfo,
	Format:      "json",
	Output:      "stdout",
	ServiceName: "multimodel-dispatch",
	Environment: "development",
}

// StructuredLogEntry represents the emitted log structure
type StructuredLogEntry struct {
	Timestamp   string                 `json:"timestamp"`
	Level       string                 `json:"level"`
	Message     string                 `json:"message"`
	Service     string                 `json:"service"`
	Environment string                 `json:"environment"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Error       map[string]interface{} `json:"error,omitempty"`
}

// Init initializes the global logger
func Init(config Config) error {
	var output *os.File
	var err error

	ServiceName = config.ServiceName
	Environment = config.Environment

	switch config.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		output, err = os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
	}

	var handler slog.Handler
	switch config.Format {
	case "json":
		handler = &StructuredJSONHandler{
			writer:      output,
			level:       config.Level,
			serviceName: config.ServiceName,
			environment: config.Environment,
			masker:      utils.NewSensitiveDataMasker(),
		}
	default:
		handler = &maskingTextHandler{
			inner:  slog.NewTextHandler(output, &slog.HandlerOptions{Level: config.Level}),
			masker: utils.NewSensitiveDataMasker(),
		}
	}

	Logger = slog.New(handler)
	return nil
}

// InitFromEnv initializes the logger with environment-based configuration
func InitFromEnv() error {
	config := DefaultConfig

	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		config.Level = LevelDebug
	case "INFO":
		config.Level = LevelInfo
	case "WARN", "WARNING":
		config.Level = LevelWarn
	case "ERROR":
		config.Level = LevelError
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		config.Output = output
	}
	if serviceName := os.Getenv("SERVICE_NAME"); serviceName != "" {
		config.ServiceName = serviceName
	}
	if environment := os.Getenv("ENVIRONMENT"); environment != "" {
		config.Environment = environment
	}

	return Init(config)
}

// StructuredJSONHandler implements a custom JSON handler for the structured format
type StructuredJSONHandler struct {
	writer      io.Writer
	level       slog.Level
	serviceName string
	environment string
	masker      *utils.SensitiveDataMasker
}

func (h *StructuredJSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *StructuredJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *StructuredJSONHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *StructuredJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := StructuredLogEntry{
		Timestamp:   r.Time.Format(time.RFC3339),
		Level:       r.Level.String(),
		Message:     r.Message,
		Service:     h.serviceName,
		Environment: h.environment,
		Attributes:  make(map[string]interface{}),
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		value := a.Value.Any()

		if key == "error" {
			if entry.Error == nil {
				entry.Error = make(map[string]interface{})
			}
			if err, ok := value.(error); ok {
				entry.Error["message"] = err.Error()
				entry.Error["type"] = fmt.Sprintf("%T", err)
			} else {
				entry.Error["message"] = fmt.Sprintf("%v", value)
			}
			return true
		}

		entry.Attributes[key] = value
		return true
	})

	if len(entry.Attributes) == 0 {
		entry.Attributes = nil
	}

	// Mask URLs and credentials before anything hits the sink
	if entry.Attributes != nil {
		entry.Attributes = h.masker.MaskFields(entry.Attributes)
	}
	if entry.Error != nil {
		entry.Error = h.masker.MaskFields(entry.Error)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(h.writer, string(data))
	return err
}

// maskingTextHandler applies the sensitive-data masker to every attribute
// before delegating to the text handler. Both output formats hold the same
// invariant: the webhook URL never reaches a sink in plaintext.
type maskingTextHandler struct {
	inner  slog.Handler
	masker *utils.SensitiveDataMasker
}

func (h *maskingTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *maskingTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.maskAttr(a)
	}
	return &maskingTextHandler{inner: h.inner.WithAttrs(masked), masker: h.masker}
}

func (h *maskingTextHandler) WithGroup(name string) slog.Handler {
	return &maskingTextHandler{inner: h.inner.WithGroup(name), masker: h.masker}
}

func (h *maskingTextHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})
	return h.inner.Handle(ctx, masked)
}

func (h *maskingTextHandler) maskAttr(a slog.Attr) slog.Attr {
	// Error values may embed the endpoint in their message
	if err, ok := a.Value.Any().(error); ok {
		return slog.String(a.Key, h.masker.MaskString(err.Error()))
	}
	return slog.Any(a.Key, h.masker.MaskValue(a.Key, a.Value.Any()))
}

// WithComponent attaches a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// WithStage attaches a processing stage to the context for logging
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// appendContextValues extracts context values and adds them to the args slice
func appendContextValues(ctx context.Context, args []any) []any {
	if ctx == nil {
		return args
	}

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		args = append(args, "request_id", requestID)
	}
	if correlationID := ctx.Value(CorrelationIDKey); correlationID != nil {
		args = append(args, "correlation_id", correlationID)
	}
	if component := ctx.Value(ComponentKey); component != nil {
		args = append(args, "component", component)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		args = append(args, "stage", stage)
	}

	return args
}

func logger() *slog.Logger {
	if Logger == nil {
		if err := Init(DefaultConfig); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: failed to initialize default logger: %v\n", err)
			return slog.New(&maskingTextHandler{
				inner:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelDebug}),
				masker: utils.NewSensitiveDataMasker(),
			})
		}
	}
	return Logger
}

// Debug logs at debug level with context values attached
func Debug(ctx context.Context, msg string, args ...any) {
	logger().DebugContext(ctx, msg, appendContextValues(ctx, args)...)
}

// Info logs at info level with context values attached
func Info(ctx context.Context, msg string, args ...any) {
	logger().InfoContext(ctx, msg, appendContextValues(ctx, args)...)
}

// Warn logs at warn level with context values attached
func Warn(ctx context.Context, msg string, args ...any) {
	logger().WarnContext(ctx, msg, appendContextValues(ctx, args)...)
}

// Error logs at error level with context values attached
func Error(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	logger().ErrorContext(ctx, msg, appendContextValues(ctx, args)...)
}
