package appointments

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for every non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("appointments: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// newAPIError extracts the backend's message from body. The backend reports
// errors as {"error": "..."} and some successes as {"message": "..."}; any
// other body is used verbatim.
func newAPIError(method, path string, status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Error
		if msg == "" {
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{
		StatusCode: status,
		Message:    msg,
		Method:     method,
		Path:       path,
	}
}
