package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the caption service. Detail carries
// the server's free-text reason; callers that need to react to a specific
// failure match on it through the workflow classifier, not here.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("caption service returned status %d", e.Status)
}

// parseAPIError turns an error response body into an *APIError. The
// service reports failures as {"detail": "..."}; anything else degrades
// to the raw body.
func parseAPIError(status int, body []byte) *APIError {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &APIError{Status: status, Detail: payload.Detail}
	}

	detail := strings.TrimSpace(string(body))
	return &APIError{Status: status, Detail: detail}
}
