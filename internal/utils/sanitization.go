package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// SensitiveDataMasker handles masking of sensitive information in logs.
// The orchestrator webhook URL must never appear in plaintext output, so
// anything URL-shaped is reduced to scheme and host before logging.
type SensitiveDataMasker struct {
	urlPattern      *regexp.Regexp
	sensitiveFields map[string]bool
}

// NewSensitiveDataMasker creates a new data masker with default patterns
func NewSensitiveDataMasker() *SensitiveDataMasker {
	fields := []string{
		"webhook_url", "webhook", "endpoint", "url",
		"authorization", "auth", "token", "secret",
		"api_key", "apikey", "api-key", "password",
	}

	sensitive := make(map[string]bool, len(fields))
	for _, f := range fields {
		sensitive[f] = true
	}

	return &SensitiveDataMasker{
		urlPattern:      regexp.MustCompile(`https?://[^\s"']+`),
		sensitiveFields: sensitive,
	}
}

// MaskEndpoint reduces a URL to scheme and host, hiding the path and query.
// Webhook paths routinely embed tenant or workflow identifiers.
func (m *SensitiveDataMasker) MaskEndpoint(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***MASKED_URL***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}

// MaskString replaces embedded URLs in a free-form string
func (m *SensitiveDataMasker) MaskString(s string) string {
	return m.urlPattern.ReplaceAllStringFunc(s, m.MaskEndpoint)
}

// MaskValue masks a single attribute value according to its key: sensitive
// keys are reduced to their masked form, and any other string value has
// embedded URLs masked.
func (m *SensitiveDataMasker) MaskValue(key string, value interface{}) interface{} {
	if m.sensitiveFields[strings.ToLower(key)] {
		if s, ok := value.(string); ok {
			return m.MaskEndpoint(s)
		}
		return "***MASKED***"
	}
	if s, ok := value.(string); ok {
		return m.MaskString(s)
	}
	return value
}

// MaskFields masks the values of sensitive keys in a flat attribute map
func (m *SensitiveDataMasker) MaskFields(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	masked := make(map[string]interface{}, len(data))
	for k, v := range data {
		masked[k] = m.MaskValue(k, v)
	}
	return masked
}

// MaskHeaders masks sensitive header values while preserving structure
func (m *SensitiveDataMasker) MaskHeaders(headers map[string][]string) map[string][]string {
	if headers == nil {
		return nil
	}

	masked := make(map[string][]string, len(headers))
	for k, vs := range headers {
		if m.sensitiveFields[strings.ToLower(k)] {
			masked[k] = []string{"***MASKED***"}
			continue
		}
		masked[k] = vs
	}
	return masked
}
