package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrNoAPIKey = errors.New("gemini: api key not configured")

// APIError is a non-200 reply from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini returned %d: %s", e.StatusCode, e.Message)
}

// parseAPIError extracts a readable message from an error body.
func parseAPIError(statusCode int, body []byte) string {
	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	switch statusCode {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "api key rejected"
	case http.StatusNotFound:
		return "model or endpoint not found"
	case http.StatusTooManyRequests:
		return "rate limited, too many requests"
	case http.StatusInternalServerError:
		return "internal error on the provider side"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	}

	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, s)
}

// friendlyError shortens common network failures.
func friendlyError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "connection refused"
	case strings.Contains(msg, "no such host"):
		return "host not found"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "timed out"
	case strings.Contains(msg, "reset by peer"):
		return "connection reset"
	}
	return "transport error"
}
