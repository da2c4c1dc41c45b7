package validation

import (
	"net/url"
	"strings"
)

// URL checks that raw is an absolute http(s) URL. Empty input is accepted.
func URL(raw, field string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return FieldError{Field: field, Message: "invalid URL format"}
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return FieldError{Field: field, Message: "URL scheme must be http or https"}
	}
	if parsed.Host == "" {
		return FieldError{Field: field, Message: "URL must include a host"}
	}
	return nil
}
