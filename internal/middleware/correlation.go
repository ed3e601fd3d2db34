package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aashari/go-multimodel-dispatch/internal/logger"
	"github.com/aashari/go-multimodel-dispatch/internal/utils"
)

// Header constants
const (
	RequestIDHeader     = utils.HeaderRequestID
	CorrelationIDHeader = utils.HeaderCorrelationID
)

// RequestCorrelationMiddleware attaches request and correlation IDs to every
// request, honoring client-provided values with a priority cascade before
// generating fresh ones.
func RequestCorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, correlationID := extractTrackingIDs(r)

		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := context.WithValue(r.Context(), logger.RequestIDKey, requestID)
		ctx = context.WithValue(ctx, logger.CorrelationIDKey, correlationID)
		ctx = logger.WithComponent(ctx, logger.ComponentNames.Middleware)

		// Health checks are polled constantly; only log the rest
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		start := time.Now()

		logger.Info(logger.WithStage(ctx, logger.LogStages.RequestReceived),
			"Incoming request",
			"method", r.Method,
			"path", r.URL.Path,
			"user_agent", r.Header.Get(utils.HeaderUserAgent),
			"client_ip", clientIP(r),
		)

		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		stage := logger.LogStages.RequestCompleted
		if wrapper.statusCode >= 400 {
			stage = logger.LogStages.RequestFailed
		}

		logger.Info(logger.WithStage(ctx, stage),
			"Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", wrapper.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// extractTrackingIDs implements the priority cascade for both tracking IDs
func extractTrackingIDs(r *http.Request) (requestID, correlationID string) {
	// Request ID: client header > CloudFlare ray > generated
	if clientRequestID := r.Header.Get(utils.HeaderRequestID); clientRequestID != "" {
		requestID = clientRequestID
	} else if cfRay := r.Header.Get(utils.HeaderCloudFlareRay); cfRay != "" {
		requestID = cfRay
	} else {
		requestID = utils.GenerateRequestID()
	}

	// Correlation ID: client header > generated UUID
	if clientCorrelationID := r.Header.Get(utils.HeaderCorrelationID); clientCorrelationID != "" {
		correlationID = clientCorrelationID
	} else {
		correlationID = utils.GenerateCorrelationID()
	}

	return requestID, correlationID
}

// clientIP extracts the client IP with a priority cascade
func clientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get(utils.HeaderXForwardedFor); forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if realIP := r.Header.Get(utils.HeaderXRealIP); realIP != "" {
		return realIP
	}
	if cfIP := r.Header.Get(utils.HeaderCFConnectingIP); cfIP != "" {
		return cfIP
	}
	return r.RemoteAddr
}

// statusRecorder captures the response status code for logging
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher for handlers that stream
func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
