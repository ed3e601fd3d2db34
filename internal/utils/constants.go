package utils

// HTTP Header Constants
const (
	// Standard HTTP Headers
	HeaderContentType    = "Content-Type"
	HeaderContentLength  = "Content-Length"
	HeaderUserAgent      = "User-Agent"
	HeaderAcceptEncoding = "Accept-Encoding"
	HeaderCacheControl   = "Cache-Control"

	// Request/Response Tracking Headers
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	// Client IP Headers (priority order)
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderCloudFlareRay  = "cf-ray"

	// CORS Headers
	HeaderAccessControlAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders = "Access-Control-Allow-Headers"

	// Orchestrator metadata headers for the raw-binary transmission mode.
	// The webhook reads these alongside the unencoded file body.
	HeaderFilename  = "Filename"
	HeaderModels    = "Models"
	HeaderInputType = "Input-Type"
	HeaderPrompt    = "Prompt"
)

// Content Type Constants
const (
	ContentTypeJSON        = "application/json"
	ContentTypeJSONUTF8    = "application/json; charset=utf-8"
	ContentTypeOctetStream = "application/octet-stream"
)

// CORS Values
const (
	CORSAllowOriginAll  = "*"
	CORSAllowMethodsAll = "POST, GET, OPTIONS"
	CORSAllowHeadersStd = "Accept, Content-Type, Content-Length, Accept-Encoding, X-Request-ID, X-Correlation-ID"
)
