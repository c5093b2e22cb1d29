// Package httpx provides the JSON envelope used by AJAX endpoints.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope statuses. The HTTP status code follows the envelope status:
// success -> 200, fail (validation) -> 400, error (unexpected) -> 500.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the uniform AJAX response body.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success writes a success envelope with HTTP 200.
func Success(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, Envelope{Status: StatusSuccess, Message: message})
}

// Fail writes a validation-failure envelope with HTTP 400.
func Fail(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, Envelope{Status: StatusFail, Message: message})
}

// Error writes an unexpected-error envelope with HTTP 500.
func Error(w http.ResponseWriter, message string) {
	JSON(w, http.StatusInternalServerError, Envelope{Status: StatusError, Message: message})
}
