package utils

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct{}

// NewHTTPHelper creates a new HTTP helper.
func NewHTTPHelper() *HTTPHelper {
	return &HTTPHelper{}
}

// BuildHeaders creates request headers with defaults; custom values win.
func (h *HTTPHelper) BuildHeaders(userAgent string, customHeaders map[string]string) map[string]string {
	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}

	for key, value := range customHeaders {
		headers[key] = value
	}

	return headers
}
