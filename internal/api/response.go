package api

import (
	"encoding/json"
	"net/http"
)

// Stable machine-readable error codes carried in the response envelope.
// Clients branch on these, never on the human message.
const (
	ErrInvalidValue        = "INVALID_VALUE"
	ErrInvalidType         = "INVALID_TYPE"
	ErrInvalidAccount      = "INVALID_ACCOUNT"
	ErrInactiveAccount     = "INACTIVE_ACCOUNT"
	ErrForbidden           = "FORBIDDEN"
	ErrUserUnauthorized    = "USER_UNAUTHORIZED"
	ErrInternalServerError = "INTERNAL_SERVER_ERROR"

	// ErrIdempotencyConflict marks a key reused with a different payload.
	ErrIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
)

// Response is the uniform envelope every endpoint returns. It is also the
// exact payload persisted in idempotency records, so a replayed request gets
// back byte-for-byte what the first execution produced.
type Response struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	ErrorType  string          `json:"errorType,omitempty"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// OK builds a 200 envelope around data.
func OK(data any) Response {
	raw, _ := json.Marshal(data)
	return Response{Success: true, StatusCode: http.StatusOK, Data: raw}
}

// NoContent builds the empty 204 envelope.
func NoContent() Response {
	return Response{Success: true, StatusCode: http.StatusNoContent}
}

// Fail builds an error envelope with a stable error code.
func Fail(status int, errType, message string) Response {
	return Response{StatusCode: status, ErrorType: errType, Message: message}
}

// Write sends the envelope with its own status code. A 204 carries no body.
func Write(w http.ResponseWriter, resp Response) {
	if resp.StatusCode == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	json.NewEncoder(w).Encode(resp)
}
