package instagram

import "fmt"

// UpstreamError reports a rejected or failed Graph API request. The message
// carries the upstream-provided text when the error body was structured.
type UpstreamError struct {
	StatusCode int
	Code       int
	Message    string
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("graph api request failed with status %d", e.StatusCode)
}

// errorBody is the structured error envelope the Graph API returns on 4xx/5xx
type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
