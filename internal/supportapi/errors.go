package supportapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// WentWrong is the generic user-facing fallback when the server gives
// no usable message.
const WentWrong = "Something went wrong. Please try again."

// APIError is a non-2xx response decoded from the platform's error
// envelope `{"error":{"code":..., "message":...}}`. Message may be
// empty when the envelope is absent or malformed.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Unauthorized reports whether the call was rejected for a missing or
// expired session token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Unauthorized reports whether any error in the chain is an auth
// rejection.
func Unauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Code = strings.TrimSpace(envelope.Error.Code)
		apiErr.Message = strings.TrimSpace(envelope.Error.Message)
	}
	return apiErr
}

// UserMessage extracts the server-provided message from any error in
// the chain, falling back to the generic string. Every toast in the
// console goes through this.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return WentWrong
}
