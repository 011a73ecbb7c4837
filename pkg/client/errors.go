package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError represents a failed console API call.
type APIError struct {
	// StatusCode is the HTTP status, 0 for network failures
	StatusCode int
	ErrorClass ErrorClass
	Message    string

	// Detail is the server's error message or validation detail, if any
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("console API %s error (status %d): %s", e.ErrorClass, e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code of the failed call.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// ErrorDetail returns the server-provided detail.
func (e *APIError) ErrorDetail() string {
	return e.Detail
}

// parseErrorDetail extracts the message from an error body. The console
// backend answers {"error": "..."}; validation failures use {"detail": ...}
// where detail is either a string or a list of field errors.
func parseErrorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}

	for _, field := range []string{"error", "detail", "message"} {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return string(raw)
	}

	return ""
}
