package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// ConfigurationError reports a missing or invalid configuration value.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

// NetworkError reports a transport failure, i.e. no response was received.
type NetworkError struct {
	Step   string
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Step, e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError reports a response with an unexpected status code. Body holds the
// raw response payload for diagnosis.
type APIError struct {
	Step       string
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: received %d %s", e.Step, e.StatusCode, http.StatusText(e.StatusCode))
	if body := prettyBody(e.Body); body != "" {
		msg += "\n" + body
	}
	return msg
}

// ParseError reports a malformed checksum list.
type ParseError struct {
	Path   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("parse: %s", e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("parse %s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// NamingError reports an artifact filename that does not follow the
// <prefix>_<version>_<os>_<arch>.<ext> convention.
type NamingError struct {
	Filename string
	Reason   string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("artifact name %q: %s", e.Filename, e.Reason)
}

// prettyBody indents JSON payloads and returns anything else verbatim.
func prettyBody(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "    "); err != nil {
		return string(body)
	}
	return buf.String()
}
