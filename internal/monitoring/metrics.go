package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"
)

// Metrics holds application metrics
type Metrics struct {
	mu               sync.RWMutex
	RequestCount     int64
	RequestDuration  time.Duration
	ErrorCount       int64
	DispatchCount    int64
	BranchCounts     map[string]int64 // per-model results delivered
	BranchErrors     map[string]int64 // per-model branches that failed or went missing
	BranchLatencyMs  map[string]int64 // cumulative per-model latency
	StatusCodeCounts map[int]int64
	StartTime        time.Time
}

// Global metrics instance
var globalMetrics = newMetrics()

func newMetrics() *Metrics {
	return &Metrics{
		BranchCounts:     make(map[string]int64),
		BranchErrors:     make(map[string]int64),
		BranchLatencyMs:  make(map[string]int64),
		StatusCodeCounts: make(map[int]int64),
		StartTime:        time.Now(),
	}
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records an HTTP request with its duration and status
func (m *Metrics) RecordRequest(duration time.Duration, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount++
	m.RequestDuration += duration
	m.StatusCodeCounts[statusCode]++

	if statusCode >= 400 {
		m.ErrorCount++
	}
}

// RecordDispatch records one submission to the orchestrator
func (m *Metrics) RecordDispatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DispatchCount++
}

// RecordBranch records one per-model branch outcome
func (m *Metrics) RecordBranch(model string, failed bool, latencyMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BranchCounts[model]++
	if failed {
		m.BranchErrors[model]++
	}
	if latencyMs > 0 {
		m.BranchLatencyMs[model] += latencyMs
	}
}

// RecordMissingBranch records a requested model absent from the response
func (m *Metrics) RecordMissingBranch(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BranchErrors[model]++
}

// GetStats returns current statistics
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uptime := time.Since(m.StartTime)
	avgDuration := time.Duration(0)
	if m.RequestCount > 0 {
		avgDuration = m.RequestDuration / time.Duration(m.RequestCount)
	}

	errorRate := 0.0
	if m.RequestCount > 0 {
		errorRate = float64(m.ErrorCount) / float64(m.RequestCount)
	}

	// Copy maps to avoid handing out shared state
	branchCounts := make(map[string]int64, len(m.BranchCounts))
	for k, v := range m.BranchCounts {
		branchCounts[k] = v
	}
	branchErrors := make(map[string]int64, len(m.BranchErrors))
	for k, v := range m.BranchErrors {
		branchErrors[k] = v
	}
	statusCounts := make(map[int]int64, len(m.StatusCodeCounts))
	for k, v := range m.StatusCodeCounts {
		statusCounts[k] = v
	}

	avgBranchLatency := make(map[string]int64, len(m.BranchLatencyMs))
	for model, total := range m.BranchLatencyMs {
		if count := m.BranchCounts[model]; count > 0 {
			avgBranchLatency[model] = total / count
		}
	}

	return map[string]interface{}{
		"uptime_seconds":        uptime.Seconds(),
		"total_requests":        m.RequestCount,
		"total_errors":          m.ErrorCount,
		"total_dispatches":      m.DispatchCount,
		"average_duration_ms":   avgDuration.Milliseconds(),
		"error_rate":            errorRate,
		"branch_results":        branchCounts,
		"branch_errors":         branchErrors,
		"avg_branch_latency_ms": avgBranchLatency,
		"status_code_counts":    statusCounts,
		"start_time":            m.StartTime.Format(time.RFC3339),
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount = 0
	m.RequestDuration = 0
	m.ErrorCount = 0
	m.DispatchCount = 0
	m.BranchCounts = make(map[string]int64)
	m.BranchErrors = make(map[string]int64)
	m.BranchLatencyMs = make(map[string]int64)
	m.StatusCodeCounts = make(map[int]int64)
	m.StartTime = time.Now()
}

// MetricsMiddleware wraps HTTP handlers to collect request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		globalMetrics.RecordRequest(time.Since(start), wrapper.statusCode)
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// MetricsHandler returns current metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stats := globalMetrics.GetStats()

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode metrics"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// SetupPprofRoutes adds pprof endpoints to the router
func SetupPprofRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
}
