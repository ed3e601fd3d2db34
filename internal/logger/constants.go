package logger

// LogStages defines standardized stage names for consistent logging
var LogStages = struct {
	Initialization   string
	Configuration    string
	Validation       string
	RequestReceived  string
	RequestCompleted string
	RequestFailed    string
	Dispatch         string
	Aggregation      string
	HistoryWrite     string
	HealthCheck      string
	TrackingSetup    string
	Error            string
}{
	Initialization:   "Initialization",
	Configuration:    "Configuration",
	Validation:       "Validation",
	RequestReceived:  "RequestReceived",
	RequestCompleted: "RequestCompleted",
	RequestFailed:    "RequestFailed",
	Dispatch:         "Dispatch",
	Aggregation:      "Aggregation",
	HistoryWrite:     "HistoryWrite",
	HealthCheck:      "HealthCheck",
	TrackingSetup:    "TrackingSetup",
	Error:            "Error",
}

// ComponentNames defines standardized component names for consistent logging
var ComponentNames = struct {
	Server       string
	Middleware   string
	Handlers     string
	Orchestrator string
	Aggregator   string
	History      string
	Config       string
}{
	Server:       "Server",
	Middleware:   "Middleware",
	Handlers:     "Handlers",
	Orchestrator: "Orchestrator",
	Aggregator:   "Aggregator",
	History:      "History",
	Config:       "Config",
}
